package logging

import "context"

type contextKey string

const (
	cycleKey contextKey = "cycle"
	itemKey  contextKey = "item"
)

// WithCycle adds an orchestration cycle number to the context.
func WithCycle(ctx context.Context, cycle uint64) context.Context {
	return context.WithValue(ctx, cycleKey, cycle)
}

// WithItem adds the name of the vault item being handled to the context.
func WithItem(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, itemKey, name)
}

// GetCycle retrieves the cycle number from the context.
// Returns 0 if not present.
func GetCycle(ctx context.Context) uint64 {
	if n, ok := ctx.Value(cycleKey).(uint64); ok {
		return n
	}
	return 0
}

// GetItem retrieves the item name from the context.
// Returns empty string if not present.
func GetItem(ctx context.Context) string {
	if name, ok := ctx.Value(itemKey).(string); ok {
		return name
	}
	return ""
}
