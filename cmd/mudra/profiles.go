package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage calibration profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calibration profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			profiles, err := st.Profiles().List()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Println("No profiles. Import one with 'mudra profiles import <file>'.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACTIVE\tNAME\tID\tSTRATEGY\tUPDATED")
			for _, p := range profiles {
				mark := ""
				if p.Active {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, p.Name, p.ID,
					p.Calibration.ClickStrategy, p.UpdatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Print a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			p, err := resolveProfile(st, args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		})
	},
}

var profilesActivateCmd = &cobra.Command{
	Use:   "activate <id|name>",
	Short: "Switch to a profile",
	Long: `Switch to a profile. A running instance is asked through its API so the
new calibration applies at once; otherwise the choice is saved for the next start.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			p, err := resolveProfile(st, args[0])
			if err != nil {
				return err
			}

			err = activateRemote(p.ID)
			if err == nil {
				fmt.Printf("Activated %q in the running instance\n", p.Name)
				return nil
			}
			log.WithError(err).Debug("running instance not reachable")

			if _, err := st.Profiles().Activate(p.ID); err != nil {
				return err
			}
			fmt.Printf("Activated %q\n", p.Name)
			return nil
		})
	},
}

var profilesDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Go back to the calibration in the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			return st.Profiles().Deactivate()
		})
	},
}

var profilesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import profiles from a JSON file",
	Long: `Import one profile object or an array of them. Calibration fields left out
of the file keep their default values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		profiles, err := decodeProfiles(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		return withStore(func(st *store.Store) error {
			for _, p := range profiles {
				if err := st.Profiles().Create(p); err != nil {
					return fmt.Errorf("import %q: %w", p.Name, err)
				}
				fmt.Printf("Imported %q (%s)\n", p.Name, p.ID)
			}
			return nil
		})
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			p, err := resolveProfile(st, args[0])
			if err != nil {
				return err
			}
			if err := st.Profiles().Delete(p.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %q\n", p.Name)
			return nil
		})
	},
}

func init() {
	profilesCmd.AddCommand(profilesListCmd, profilesShowCmd, profilesActivateCmd,
		profilesDeactivateCmd, profilesImportCmd, profilesDeleteCmd)
	rootCmd.AddCommand(profilesCmd)
}

// withStore opens the profile database for the duration of fn.
func withStore(fn func(*store.Store) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	setupLogging(settings.Log.Level)

	st, err := store.New(settings.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

// resolveProfile looks ref up as an ID first, then as a name.
func resolveProfile(st *store.Store, ref string) (*store.Profile, error) {
	p, err := st.Profiles().GetByID(ref)
	if errors.Is(err, store.ErrNotFound) {
		p, err = st.Profiles().GetByName(ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("profile %q: %w", ref, err)
	}
	return p, err
}

type profileFile struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Calibration json.RawMessage `json:"calibration"`
}

// decodeProfiles accepts a single profile object or an array of them.
func decodeProfiles(data []byte) ([]*store.Profile, error) {
	data = bytes.TrimSpace(data)

	var entries []profileFile
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	} else {
		var one profileFile
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		entries = []profileFile{one}
	}

	profiles := make([]*store.Profile, 0, len(entries))
	for _, e := range entries {
		cal := gesture.DefaultCalibration()
		if len(e.Calibration) > 0 {
			if err := json.Unmarshal(e.Calibration, &cal); err != nil {
				return nil, fmt.Errorf("profile %q: %w", e.Name, err)
			}
		}
		profiles = append(profiles, &store.Profile{ID: e.ID, Name: e.Name, Calibration: cal})
	}
	return profiles, nil
}

// activateRemote asks a running instance to switch profile.
func activateRemote(id string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if !settings.Server.Enabled {
		return errors.New("server disabled")
	}

	client := &http.Client{Timeout: 2 * time.Second}
	url := statusPageURL(settings.Server.Addr) + "api/profiles/" + id + "/activate"
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("activate: %s: %s", resp.Status, body.Error)
	}
	return nil
}
