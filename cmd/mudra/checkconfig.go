package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
)

var writeDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Check the configuration and print the effective settings",
	Long: `Load the configuration file, validate it and print every setting with
defaults filled in. With --init a default file is written when none exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeDefaults {
			return initConfig(configPath)
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		_, err = settings.WriteTo(os.Stdout)
		return err
	},
}

func init() {
	configCmd.Flags().BoolVar(&writeDefaults, "init", false, "write a default configuration file if none exists")
	rootCmd.AddCommand(configCmd)
}

func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := config.Default().WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
