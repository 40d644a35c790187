package employee

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/vault"
	"github.com/subhankaladi/ai-employee/internal/store/jsonfile"
	"github.com/subhankaladi/ai-employee/pkg/kv"
)

// Dedup is the set of items the engine has already handled, keyed
// "<stage>/<name>". When a store is attached, every change is saved and the
// set survives restarts.
type Dedup struct {
	set   *kv.Store[string, time.Time]
	store *jsonfile.DedupStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewDedup creates a dedup set. store may be nil for a process-local set.
func NewDedup(store *jsonfile.DedupStore, log zerolog.Logger) *Dedup {
	return &Dedup{
		set:   kv.New[string, time.Time](),
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "dedup").Logger(),
	}
}

// DedupKey builds the set key for an item name in a stage.
func DedupKey(stage vault.Stage, name string) string {
	return string(stage) + "/" + name
}

// Load reads the persisted set and drops keys whose file is no longer in
// the recorded stage. It is a no-op without a store.
func (d *Dedup) Load(ctx context.Context, v *vault.Vault) error {
	if d.store == nil {
		return nil
	}

	keys, err := d.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dedup index: %w", err)
	}
	d.set.Replace(keys)

	pruned := d.set.Retain(func(key string, _ time.Time) bool {
		stage, name, ok := strings.Cut(key, "/")
		if !ok || !vault.Stage(stage).IsValid() {
			return false
		}
		return v.Exists(vault.Stage(stage), name)
	})

	d.log.Info().Int("entries", d.set.Len()).Int("pruned", pruned).Msg("dedup index loaded")

	if pruned > 0 {
		return d.save(ctx)
	}
	return nil
}

// Seen reports whether key has been handled.
func (d *Dedup) Seen(key string) bool {
	return d.set.Has(key)
}

// Mark records keys as handled.
func (d *Dedup) Mark(ctx context.Context, keys ...string) error {
	added := 0
	now := d.now()
	for _, key := range keys {
		if d.set.SetIfAbsent(key, now) {
			added++
		}
	}
	if added == 0 {
		return nil
	}
	return d.save(ctx)
}

// Forget drops keys so a file with the same name is handled again.
func (d *Dedup) Forget(ctx context.Context, keys ...string) error {
	removed := 0
	for _, key := range keys {
		if d.set.Has(key) {
			d.set.Delete(key)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	return d.save(ctx)
}

// Len returns the number of handled keys.
func (d *Dedup) Len() int {
	return d.set.Len()
}

// Keys returns the handled keys in lexical order.
func (d *Dedup) Keys() []string {
	return d.set.SortedKeys(func(a, b string) bool { return a < b })
}

func (d *Dedup) save(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	if err := d.store.Save(ctx, d.set.Snapshot()); err != nil {
		return fmt.Errorf("save dedup index: %w", err)
	}
	return nil
}
