package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
	"github.com/swipingforjobs/jobswipe/pkg/config"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the session monitor in the foreground",
	Long: `Run the session monitor until interrupted.

The monitor:
- Reconciles the session with the server on a background cadence
- Warns as expiry approaches, escalating inside the last minutes
- Counts down inactivity and re-verifies the session when it lapses
- Treats other jobswipe commands as interactions via the marker file
- Reloads cadences when the config file changes

It exits on SIGINT/SIGTERM, or when a reconcile verdict ends the
authenticated lifetime.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// monitorStack is the restartable part of the watch daemon: everything
// derived from reloadable config values.
type monitorStack struct {
	monitor *activity.Monitor
	files   *activity.FileWatcher
}

func (s *monitorStack) stop() {
	s.files.Stop()
	s.monitor.Stop()
}

// stackManager owns the current monitor stack and swaps it on config
// reload. The replacement starts before the old stack stops, so a failed
// reload leaves the running stack untouched.
type stackManager struct {
	start func(*config.Config) (*monitorStack, error)

	mu    sync.Mutex
	stack *monitorStack
}

func (m *stackManager) current() *monitorStack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack
}

func (m *stackManager) reload(cfg *config.Config) error {
	next, err := m.start(cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.stack
	m.stack = next
	m.mu.Unlock()

	old.stop()
	return nil
}

func (m *stackManager) stop() {
	m.current().stop()
}

// done resolves when the current monitor loop exits for good. A reload
// swaps the monitor, so a single fixed Done channel would go stale.
func (m *stackManager) done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			current := m.current().monitor
			<-current.Done()
			if m.current().monitor == current {
				return
			}
		}
	}()
	return done
}

func startMonitorStack(ctx context.Context, app *app, cfg *config.Config) (*monitorStack, error) {
	poll, err := cfg.Activity.GetPollInterval()
	if err != nil {
		return nil, err
	}
	watch, err := cfg.Activity.GetWatchInterval()
	if err != nil {
		return nil, err
	}
	inactivity, err := cfg.Activity.GetInactivityTimeout()
	if err != nil {
		return nil, err
	}

	monitor := activity.NewMonitor(
		app.reconciler(),
		app.validator,
		activity.NewConsoleNotifier(app.logger),
		app.logger,
		activity.WithIntervals(poll, watch, inactivity),
	)

	files, err := activity.NewFileWatcher(cfg.Activity.MarkerPath, monitor, app.logger)
	if err != nil {
		return nil, err
	}

	monitor.Start(ctx)
	if err := files.Start(); err != nil {
		monitor.Stop()
		return nil, err
	}

	app.logger.Info("monitor started",
		"poll", poll.String(), "watch", watch.String(), "inactivity", inactivity.String())
	return &monitorStack{monitor: monitor, files: files}, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.validator.IsLoggedIn() {
		return fmt.Errorf("not logged in; run 'jobswipe login' first")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := &stackManager{
		start: func(cfg *config.Config) (*monitorStack, error) {
			return startMonitorStack(ctx, app, cfg)
		},
	}
	manager.stack, err = manager.start(app.cfg)
	if err != nil {
		return err
	}

	// Cadence changes take effect on config reload. Storage and API
	// endpoint changes need a process restart.
	watcher, err := config.NewWatcher(cfgFile, manager.reload, app.logger)
	if err == nil {
		if err := watcher.Start(); err != nil {
			app.logger.Warn("config watch unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	} else {
		app.logger.Warn("config watch unavailable", "error", err)
	}

	select {
	case <-ctx.Done():
		app.logger.Info("shutting down")
	case <-manager.done():
		// Forced logout tore the loop down from inside
	}

	manager.stop()
	return nil
}
