package employee

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/internal/core/vault"
)

// WakeWatcher watches stage directories and signals the orchestrator when
// items appear, so work is picked up before the next tick. It only signals;
// all processing stays on the orchestrator's goroutine.
type WakeWatcher struct {
	watcher     *fsnotify.Watcher
	vault       *vault.Vault
	debounceDur time.Duration
	log         zerolog.Logger
}

// NewWakeWatcher watches the given stages of v.
func NewWakeWatcher(v *vault.Vault, stages []vault.Stage, log zerolog.Logger) (*WakeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	for _, stage := range stages {
		if err := watcher.Add(v.Dir(stage)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", stage.Dir(), err)
		}
	}

	return &WakeWatcher{
		watcher:     watcher,
		vault:       v,
		debounceDur: 200 * time.Millisecond,
		log:         log.With().Str("component", "wake-watcher").Logger(),
	}, nil
}

// Run forwards debounced change notifications to wake until ctx is
// cancelled. Sends never block: a pending signal already covers new changes.
func (w *WakeWatcher) Run(ctx context.Context, wake chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}

			w.log.Debug().
				Str("path", event.Name).
				Str("op", event.Op.String()).
				Msg("file system event")

			if !w.settle(ctx) {
				return
			}

			select {
			case wake <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// settle drains events until none arrive for the debounce window. It
// returns false when the watcher closed or ctx ended.
func (w *WakeWatcher) settle(ctx context.Context) bool {
	debounce := time.NewTimer(w.debounceDur)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-w.watcher.Events:
			if !ok {
				return false
			}
			if !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(w.debounceDur)
		case <-debounce.C:
			return true
		}
	}
}

func (w *WakeWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.vault.Matches(filepath.Base(event.Name))
}

// Close stops the watcher.
func (w *WakeWatcher) Close() error {
	return w.watcher.Close()
}
