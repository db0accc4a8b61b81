package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"whichmodel/internal/api"
	"whichmodel/internal/config"
	"whichmodel/internal/database"
	"whichmodel/internal/events"
	"whichmodel/internal/logging"
	"whichmodel/internal/services"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Init(database.Config{
		Path:     cfg.DBPath,
		LogLevel: logger.Warn,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	keyringService := services.NewKeyringService(cfg.KeyringBackend, log.Named("keyring"))
	client := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithTokenSource(keyringService.TokenSource()),
		api.WithLogger(log.Named("api")),
	)

	svc, err := services.NewServices(db, client, keyringService, cfg.DefaultChunkSize, log)
	if err != nil {
		log.Fatal("build services", zap.Error(err))
	}

	app := NewApp(svc, log)
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	log.Info("starting whichmodel", zap.String("api", cfg.APIURL))

	err = wails.Run(&options.App{
		Title:  "WhichModel",
		Width:  1280,
		Height: 860,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "WhichModel",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			events.EnableRuntimeEmitter()
			app.startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			svc.Catalog,
			svc.Models,
			svc.AppSettings,
			svc.Batch,
			svc.Embeddings,
			svc.Practice,
			svc.Keyring,
		},
	})

	if err != nil {
		log.Error("wails run", zap.Error(err))
	}
}
