package events

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var (
	emitMu sync.RWMutex
	emitFn = func(ctx context.Context, name string, payload any) {}
)

// Emit sends payload to the frontend under the given event name. It is a
// no-op until an emitter is installed.
func Emit(ctx context.Context, name string, payload any) {
	emitMu.RLock()
	f := emitFn
	emitMu.RUnlock()
	if n, ok := payload.(Notice); ok && n.RunID == "" {
		n.RunID = RunFromContext(ctx)
		payload = n
	}
	f(ctx, name, payload)
}

// EmitNotice is shorthand for Emit(ctx, BatchNotice, n).
func EmitNotice(ctx context.Context, n Notice) {
	Emit(ctx, BatchNotice, n)
}

// EnableRuntimeEmitter routes events to the Wails runtime. ctx must be the
// context Wails handed to OnStartup.
func EnableRuntimeEmitter() {
	setEmitter(func(ctx context.Context, name string, payload any) {
		runtime.EventsEmit(ctx, name, payload)
		logRuntimeEvent(ctx, name, payload)
	})
}

func SetCustomEmitter(f func(ctx context.Context, name string, payload any)) {
	if f == nil {
		f = func(context.Context, string, any) {}
	}
	setEmitter(f)
}

func setEmitter(f func(ctx context.Context, name string, payload any)) {
	emitMu.Lock()
	emitFn = f
	emitMu.Unlock()
}
