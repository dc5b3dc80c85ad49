package app

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/adlaunch/internal/common"
	"github.com/ternarybob/adlaunch/internal/handlers"
	"github.com/ternarybob/adlaunch/internal/services/auth"
	"github.com/ternarybob/adlaunch/internal/services/bulk"
	"github.com/ternarybob/adlaunch/internal/services/snapchat"
)

// App holds all application dependencies, wired once at startup
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Services
	TokenService *auth.Service
	Client       *snapchat.Client
	Registry     *bulk.Registry
	Orchestrator *bulk.Orchestrator

	// Handlers
	BulkHandler   *handlers.BulkHandler
	AuthHandler   *handlers.AuthHandler
	StatusHandler *handlers.StatusHandler
}

// New creates and wires the application
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	a.TokenService = auth.NewService(config, logger)
	a.Client = snapchat.NewClient(config, a.TokenService, logger)
	a.Registry = bulk.NewRegistry()
	a.Orchestrator = bulk.NewOrchestrator(&config.Bulk, a.TokenService, a.Client, a.Registry, logger)

	a.BulkHandler = handlers.NewBulkHandler(a.Orchestrator, logger)
	a.AuthHandler = handlers.NewAuthHandler(a.TokenService, a.Client, logger)
	a.StatusHandler = handlers.NewStatusHandler(logger)

	logger.Info().
		Str("ads_base_url", config.Snapchat.AdsBaseURL).
		Str("token_file", config.Auth.TokenFile).
		Msg("Application initialized")

	return a, nil
}

// Close releases application resources. The only persistent state is the
// credential file, which is written eagerly on every mutation, so there is
// nothing to flush here.
func (a *App) Close() {
	a.Logger.Info().Msg("Application closed")
}
