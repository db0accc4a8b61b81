package events

import (
	"context"
	"encoding/json"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

func logRuntimeEvent(ctx context.Context, name string, payload any) {
	notice, ok := payload.(Notice)
	if !ok {
		runtime.LogDebug(ctx, "event "+name)
		return
	}

	data, err := json.Marshal(notice)
	if err != nil {
		runtime.LogError(ctx, "events: failed to marshal notice: "+err.Error())
		return
	}

	line := name + " " + string(data)

	switch notice.Type {
	case EventError:
		runtime.LogError(ctx, line)
	case EventWarn:
		runtime.LogWarning(ctx, line)
	default:
		runtime.LogInfo(ctx, line)
	}
}
