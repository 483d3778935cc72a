package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
)

const version = "dev"

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "Hand gesture mouse and keyboard control",
	Long: `Mudra tracks both hands through the webcam and turns pinches into
pointer movement, clicks, scrolling, dragging, copy/paste and desktop switching.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runE,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "profile database (overrides [store] path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Running is the default; its flags work without naming the subcommand.
	addRunFlags(rootCmd)
}

// loadSettings reads the configuration file and applies the persistent
// flag overrides.
func loadSettings() (*config.Config, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		settings.Store.Path = dbPath
	}
	return settings, nil
}

// setupLogging applies the configured level; --verbose forces debug.
func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}

func printJSON(data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
