package main

import (
	"errors"
	"os"
	"time"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/app/service"
	dex_client "fund_tracer/internal/client"
	"fund_tracer/internal/infrastructure/configloader"
	clientprovider "fund_tracer/internal/infrastructure/network/client"
	networkdefinition "fund_tracer/internal/infrastructure/network/definition"
	"fund_tracer/internal/pkg/logger"
	"fund_tracer/internal/pkg/metrics"

	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

// application holds everything both commands need.
type application struct {
	cfg      *configloader.Config
	zap      *zap.Logger
	log      port.Logger
	networks *networkdefinition.NetworkDefinitionProvider
	clients  *clientprovider.EVMClientProvider
	tracer   *service.TracerServiceImpl
	builder  *service.RequestBuilder
	prices   port.TokenPriceService
}

// resolveConfigPath picks --config, then CONFIG_PATH, then the default file if it exists.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func newApplication(configPath string) (*application, error) {
	cfg, err := configloader.Load(resolveConfigPath(configPath))
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.Init(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	appLogger := logger.NewSlogAdapter()

	metrics.MustRegisterMetrics()

	networks := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Networks)
	if _, ok := networks.GetNetworkDefinitionByName(cfg.Scan.DefaultNetwork); !ok {
		return nil, errors.New("default network " + cfg.Scan.DefaultNetwork + " is not configured")
	}

	clients := clientprovider.NewEVMClientProvider(cfg.RpcClient, networks, appLogger)
	tracer := service.NewTracerService(clients, appLogger, service.FetchOptions{
		MaxBlockSpan:       cfg.Scan.MaxBlockSpan,
		MaxSendersPerQuery: cfg.Scan.MaxSendersPerQuery,
	})

	app := &application{
		cfg:      cfg,
		zap:      zapLogger,
		log:      appLogger,
		networks: networks,
		clients:  clients,
		tracer:   tracer,
		builder:  service.NewRequestBuilder(networks, tracer, cfg.Scan),
	}

	if cfg.DEXScreener.Enabled {
		dsc := dex_client.NewDEXScreenerClient(
			cfg.DEXScreener.BaseURL,
			time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
			zapLogger,
		)
		app.prices = service.NewTokenPriceService(dsc, appLogger, time.Duration(cfg.TokenPriceSvc.CacheTTLMinutes)*time.Minute)
		zapLogger.Info("DEXScreener price enrichment enabled", zap.String("baseURL", cfg.DEXScreener.BaseURL))
	}

	return app, nil
}

func (a *application) Close() {
	a.clients.Close()
	_ = a.zap.Sync()
}
