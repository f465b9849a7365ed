package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/errandmate/errandmate/internal/account"
	"github.com/errandmate/errandmate/internal/config"
	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/log"
	"github.com/errandmate/errandmate/internal/metrics"
	"github.com/errandmate/errandmate/internal/session"
)

// app is the assembled application stack shared by all commands.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	metrics *metrics.Metrics
	client  *gateway.Client
	store   *session.Store
	mgr     *account.Manager
}

// cliNavigator prints redirect decisions; a terminal cannot navigate.
type cliNavigator struct{}

func (cliNavigator) Navigate(path string) {
	fmt.Fprintf(os.Stderr, "You are signed out. Run 'errandmate login' to continue (%s).\n", path)
}

// newApp builds the stack from flags and configuration, restoring any saved
// session snapshot.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	levelName := cfg.Log.Level
	if levelFlag, _ := cmd.Flags().GetString("log-level"); levelFlag != "" {
		levelName = levelFlag
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logger := log.New(log.Config{
		Level:  level,
		Format: log.Format(cfg.Log.Format),
		Output: log.OutputStderr,
	})

	m := metrics.New(prometheus.NewRegistry())

	client, err := gateway.NewClient(cfg.Backend.BaseURL,
		gateway.WithLogger(logger),
		gateway.WithMetrics(m),
		gateway.WithTimeout(time.Duration(cfg.Backend.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	store := session.NewStore(session.WithMetrics(m))
	if cfg.Session.SnapshotPath != "" {
		store.RestoreSnapshot(cfg.Session.SnapshotPath)
	}

	mgr := account.NewManager(client, store,
		account.WithNavigator(cliNavigator{}),
		account.WithLogger(logger),
		account.WithMetrics(m),
		account.WithLoginPath(cfg.Auth.LoginPath),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		client:  client,
		store:   store,
		mgr:     mgr,
	}, nil
}

// close persists the session snapshot. Called on every command exit so a
// fresh login or a logout survives the process.
func (a *app) close() {
	if a.cfg.Session.SnapshotPath == "" {
		return
	}
	if err := a.store.SaveSnapshot(a.cfg.Session.SnapshotPath); err != nil {
		a.logger.WithError(err).Warn("save session snapshot")
	}
}
