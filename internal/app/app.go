package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stock-compare/internal/cache"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/handlers"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/market"
	"github.com/bobmcallan/stock-compare/internal/mcp"
	"github.com/bobmcallan/stock-compare/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage   interfaces.StorageManager
	Snapshots *cache.SnapshotStore
	Compare   *compare.Service

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	DashboardHandler *handlers.DashboardHandler
	SettingsHandler  *handlers.SettingsHandler
	APIHandler       *handlers.APIHandler
	MCPHandler       *mcp.Handler

	marketSource compare.MarketSource
	llmSource    compare.LLMSource
}

// Option customises App construction.
type Option func(*App)

// WithMarketSource replaces the configured market-data provider.
func WithMarketSource(src compare.MarketSource) Option {
	return func(a *App) { a.marketSource = src }
}

// WithLLMSource replaces the configured language-model factory.
func WithLLMSource(src compare.LLMSource) Option {
	return func(a *App) { a.llmSource = src }
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if env != "prod" && env != "dev" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}
	a.initServices()
	a.initHandlers()

	logger.Info().
		Str("market_provider", cfg.Market.Provider).
		Str("llm_provider", cfg.LLM.DefaultProvider).
		Msg("application initialization complete")

	return a, nil
}

// initStorage opens the key/value store used for API keys.
func (a *App) initStorage() error {
	mgr, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = mgr
	return nil
}

// initServices builds the comparison service and its collaborators.
func (a *App) initServices() {
	kv := a.Storage.KeyValueStorage()

	if a.marketSource == nil {
		marketCfg := a.Config.Market
		a.marketSource = func(ctx context.Context) (interfaces.MarketDataProvider, error) {
			return market.NewProvider(ctx, marketCfg, kv, a.Logger)
		}
	}
	if a.llmSource == nil {
		a.llmSource = llm.NewProviderFactory(a.Config.LLM, kv, a.Logger)
	}

	a.Snapshots = cache.New(a.Config.Dashboard.GetSnapshotTTL(), a.Config.Dashboard.MaxSnapshots)
	a.Compare = compare.NewService(a.marketSource, a.llmSource, a.Snapshots, a.Config.LLM.GetTimeout(), a.Logger)
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Config.IsDevMode())
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.healthChecks()...)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.DashboardHandler = handlers.NewDashboardHandler(a.Logger, a.PageHandler, a.Compare, a.Config.Dashboard)
	a.SettingsHandler = handlers.NewSettingsHandler(a.Logger, a.PageHandler, a.Storage.KeyValueStorage(), configKeys(a.Config))
	a.APIHandler = handlers.NewAPIHandler(a.Logger, a.Compare)
	a.MCPHandler = mcp.NewHandler(a.Compare, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// healthChecks probe the key store and that a market provider can be built
// (for EODHD that needs a key). Neither makes a network call.
func (a *App) healthChecks() []handlers.HealthCheck {
	return []handlers.HealthCheck{
		{Name: "storage", Check: func(ctx context.Context) error {
			_, err := a.Storage.KeyValueStorage().GetAll(ctx)
			return err
		}},
		{Name: "market", Check: func(ctx context.Context) error {
			_, err := a.marketSource(ctx)
			return err
		}},
	}
}

// configKeys maps API key names to the values set in the config file.
func configKeys(cfg *config.Config) map[string]string {
	return map[string]string{
		common.KeyOpenAI:    cfg.LLM.OpenAI.APIKey,
		common.KeyAnthropic: cfg.LLM.Claude.APIKey,
		common.KeyGemini:    cfg.LLM.Gemini.APIKey,
		common.KeyEODHD:     cfg.Market.EODHD.APIKey,
	}
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
