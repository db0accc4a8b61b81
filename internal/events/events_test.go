package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_NoopByDefault(t *testing.T) {
	SetCustomEmitter(nil)
	assert.NotPanics(t, func() {
		Emit(context.Background(), BatchState, struct{}{})
	})
}

func TestEmit_ScopesNoticeToRun(t *testing.T) {
	rec := &Recorder{}
	SetCustomEmitter(rec.Record)
	t.Cleanup(func() { SetCustomEmitter(nil) })

	ctx := WithRun(context.Background(), "run-1")
	EmitNotice(ctx, NewError("chunk failed"))
	Emit(ctx, BatchDone, "payload")

	notices := rec.Named(BatchNotice)
	require.Len(t, notices, 1)
	n := notices[0].(Notice)
	assert.Equal(t, "run-1", n.RunID)
	assert.Equal(t, EventError, n.Type)
	assert.Equal(t, "chunk failed", n.Message)
	assert.NotEmpty(t, n.ID)

	assert.Equal(t, []any{"payload"}, rec.Named(BatchDone))
}

func TestWithRun_IgnoresBlank(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRun(ctx, "  "))
	assert.Empty(t, RunFromContext(ctx))
	assert.Empty(t, RunFromContext(nil))
}
