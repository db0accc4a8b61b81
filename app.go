package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"whichmodel/internal/events"
	"whichmodel/internal/services"
)

// App owns the application lifecycle.
type App struct {
	ctx     context.Context
	svc     *services.Services
	log     *zap.Logger
	dbClose func() error
}

func NewApp(svc *services.Services, log *zap.Logger) *App {
	return &App{svc: svc, log: log}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.svc.Startup(ctx); err != nil {
		a.log.Error("start services", zap.Error(err))
		runtime.LogError(ctx, fmt.Sprintf("failed to start services: %v", err))
	}

	go func() {
		if err := a.svc.Catalog.Reload(ctx); err != nil {
			events.EmitNotice(ctx, events.NewError(err.Error()))
		}
	}()
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	a.svc.Batch.Stop()

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

// Reload refetches prompts and responses from the backend.
func (a *App) Reload() error {
	if err := a.svc.Catalog.Reload(a.ctx); err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to reload catalog: %v", err))
		return err
	}
	return nil
}

// BatchGridModels returns the enabled model ids offered in the batch grid.
func (a *App) BatchGridModels() []string {
	return a.svc.Models.EnabledModelIDs()
}

func (a *App) GetOS() string {
	return services.GetOS()
}
