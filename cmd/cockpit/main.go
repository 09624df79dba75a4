package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tradecockpit/cockpit/internal/config"
	"github.com/tradecockpit/cockpit/internal/logger"
	"github.com/tradecockpit/cockpit/internal/postgres"
	"github.com/tradecockpit/cockpit/internal/quote"
	"github.com/tradecockpit/cockpit/internal/refresher"
	"github.com/tradecockpit/cockpit/internal/risk"
	"github.com/tradecockpit/cockpit/internal/server"
	"github.com/tradecockpit/cockpit/internal/store"
)

const (
	_cockpitCfgFilePath = "./configs/cockpit.yaml"
)

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Debug)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadCockpitConfig(_cockpitCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load cockpit cfg", err)
	}

	db, err := postgres.NewDB(postgres.NewConfigFromEnv())
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to postgres", err)
	}
	defer db.Close()

	storage := store.New(db)
	if err := storage.Init(ctx, cfg.Accounts); err != nil {
		zapLogger.Fatalf("%s: can't init storage", err)
	}

	quotes := quote.NewYahooService(cfg.Quotes, zapLogger.With("service", "yahoo"))

	r := refresher.New(quotes, storage, cfg.RefreshInterval, zapLogger.With("service", "refresher"))
	r.Refresh(ctx)
	go r.Run(ctx)

	session, err := risk.NewSessionWindow(cfg.Session.Location, cfg.Session.OpenMinute, cfg.Session.CloseMinute)
	if err != nil {
		zapLogger.Fatalf("%s: can't init session window", err)
	}

	api := server.NewAPI(storage, r, session, cfg.RiskPercent, zapLogger.With("service", "api"))

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, api.Router())
	if err := httpServer.Run(ctx); err != nil {
		zapLogger.Errorf("%s: http server stopped", err)
	}
}
