package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts the cycle number and item name from the event context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if cycle := GetCycle(ctx); cycle != 0 {
		e.Uint64("cycle", cycle)
	}

	if name := GetItem(ctx); name != "" {
		e.Str("item", name)
	}
}
