package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

var log = logrus.WithField("component", "main")

var (
	addr     string
	cameraID int
	sinkName string
	noTray   bool
	static   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start gesture control (default)",
	Long: `Open the camera and start turning hand gestures into mouse and keyboard
input. The status page and API are served on [server] addr, and the
configuration file is reloaded when it changes.`,
	Args: cobra.NoArgs,
	RunE: runE,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides [server] addr)")
	cmd.Flags().IntVar(&cameraID, "camera", -1, "camera device index (overrides [camera] device)")
	cmd.Flags().StringVar(&sinkName, "sink", "", "action sink: robotgo, plugin or log (overrides [actions] sink)")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the system tray menu")
	cmd.Flags().StringVar(&static, "static", "", "serve the status page from this directory instead of the built-in one")
}

// applyRunFlags layers the run flags over the loaded settings.
func applyRunFlags(settings *config.Config) error {
	if addr != "" {
		settings.Server.Addr = addr
	}
	if cameraID >= 0 {
		settings.Camera.Device = cameraID
	}
	if sinkName != "" {
		settings.Actions.Sink = sinkName
	}
	if noTray {
		settings.App.Tray = false
	}
	return settings.Validate()
}

func runE(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := applyRunFlags(settings); err != nil {
		return err
	}
	setupLogging(settings.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(settings.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sink, err := newSink(ctx, settings)
	if err != nil {
		return err
	}

	a, err := app.New(app.Config{
		Settings: settings,
		Camera:   capture.NewCamera(settings.CameraSettings()),
		Detector: newDetector(settings.Detector),
		Sink:     sink,
		Store:    st,
	})
	if err != nil {
		return err
	}
	if err := a.LoadActiveProfile(); err != nil {
		log.WithError(err).Warn("failed to load the active calibration profile")
	}
	if err := a.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer a.Stop()

	var wg sync.WaitGroup

	if settings.Server.Enabled {
		srv := server.New(server.Config{StaticDir: findWebDir(static), Store: st, Controller: a})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx, settings.Server.Addr); err != nil {
				log.WithError(err).Error("HTTP server stopped")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := config.Watch(ctx, configPath, func(next *config.Config) {
			if dbPath != "" {
				next.Store.Path = dbPath
			}
			if err := a.ApplyConfig(next); err != nil {
				log.WithError(err).Warn("reloaded configuration not applied")
				return
			}
			setupLogging(next.Log.Level)
		})
		if err != nil {
			log.WithError(err).Warn("configuration reload disabled")
		}
	}()

	log.WithFields(logrus.Fields{
		"sink":    settings.Actions.Sink,
		"camera":  settings.Camera.Device,
		"enabled": a.IsEnabled(),
	}).Info("mudra running")

	if settings.App.Tray {
		runTray(ctx, cancel, a, settings)
	} else {
		<-ctx.Done()
	}

	cancel()
	wg.Wait()
	return nil
}

// runTray blocks on the tray event loop, which must own the main thread.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, settings *config.Config) {
	statusURL := ""
	if settings.Server.Enabled {
		statusURL = statusPageURL(settings.Server.Addr)
	}

	t := tray.New(statusURL)
	t.SetEnabled(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	a.OnEnabled(t.SetEnabled)

	events, stop := a.Subscribe()
	defer stop()
	go t.Follow(events)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// statusPageURL turns a listen address into a browsable URL.
func statusPageURL(listen string) string {
	host := listen
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return "http://" + host + "/"
}

// findWebDir returns the status page directory: the flag when set,
// otherwise ~/.mudra/web if the user has put one there. Empty selects the
// built-in page.
func findWebDir(flag string) string {
	if flag != "" {
		return flag
	}
	dir := filepath.Join(config.Dir(), "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		log.WithField("dir", dir).Info("serving status page from data directory")
		return dir
	}
	return ""
}

// newSink builds the configured action sink. The plugin sink falls back to
// robotgo for commands no plugin handles.
func newSink(ctx context.Context, settings *config.Config) (action.Sink, error) {
	switch settings.Actions.Sink {
	case config.SinkRobot:
		return action.NewRobotSink(), nil
	case config.SinkLog:
		return action.NewLogSink(logrus.WithField("component", "action")), nil
	case config.SinkPlugin:
		mgr := plugin.NewManager(settings.Actions.PluginDir)
		if err := mgr.Discover(); err != nil {
			return nil, fmt.Errorf("discover plugins: %w", err)
		}
		exec := plugin.NewExecutor(settings.Actions.Timeout)
		return action.NewPluginSink(ctx, exec, mgr, action.NewRobotSink()), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", settings.Actions.Sink)
	}
}

// newDetector prefers MediaPipe and falls back to a detector that never
// sees hands, so the API and tray still work without Python.
func newDetector(cfg detector.Config) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg)
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, hand tracking disabled")
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe hand detection")
	return mp
}
