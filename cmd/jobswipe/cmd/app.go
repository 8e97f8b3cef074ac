package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"

	"github.com/swipingforjobs/jobswipe/pkg/api"
	"github.com/swipingforjobs/jobswipe/pkg/config"
	"github.com/swipingforjobs/jobswipe/pkg/kvs"
	"github.com/swipingforjobs/jobswipe/pkg/logging"
	"github.com/swipingforjobs/jobswipe/pkg/oauthlink"
	"github.com/swipingforjobs/jobswipe/pkg/reconcile"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

// Storage key namespaces. Both live in the same backing store.
const (
	sessionNamespace = "jobswipe:session:"
	oauthNamespace   = "jobswipe:oauth:"
)

// app wires the shared dependencies every subcommand needs: config, logger,
// local storage, session custody, and the API client.
type app struct {
	cfg        *config.Config
	logger     logging.Logger
	storage    kvs.Store
	sessions   *session.Store
	validator  *session.Validator
	handshakes *oauthlink.HandshakeStore
	client     *api.Client
}

// loadConfig reads the config file. A missing file degrades to defaults
// driven by JOBSWIPE_API_URL so first-run setup is a single env var.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewFileLoader(cfgFile).Load()
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, config.ErrConfigFileNotFound) {
		return nil, err
	}

	baseURL := os.Getenv("JOBSWIPE_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("no config file at %s and JOBSWIPE_API_URL is not set", cfgFile)
	}
	fallback := &config.Config{}
	fallback.API.BaseURL = baseURL
	config.ApplyDefaults(fallback)
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	return fallback, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NewSimpleLogger("main", logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Color)

	storage, err := kvs.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	sessions := session.NewStore(kvs.NewNamespacedStore(storage, sessionNamespace), logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		storage:    storage,
		sessions:   sessions,
		validator:  session.NewValidator(sessions, clock.New()),
		handshakes: oauthlink.NewHandshakeStore(kvs.NewNamespacedStore(storage, oauthNamespace)),
		client:     api.NewClient(cfg.API.BaseURL, logger),
	}, nil
}

func (a *app) reconciler() *reconcile.Reconciler {
	return reconcile.New(a.sessions, a.validator, a.client, a.logger,
		reconcile.WithRefreshWindow(a.cfg.Session.RefreshWindowMinutes))
}

func (a *app) Close() error {
	return a.storage.Close()
}
