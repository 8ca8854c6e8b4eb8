// Package store is the device-local source of truth for objectives, tasks,
// schedule, status and settings.
//
// Each store owns its state behind a mutex and replaces it copy-on-write:
// a mutation builds the next state, swaps it in, then hands the encoded
// state to the injected Persistence. Readers always get deep copies.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Persistence keys, one JSON blob per logical store.
const (
	KeyObjectives = "objectives"
	KeyTasks      = "tasks"
	KeySchedule   = "schedule"
	KeyStatus     = "status"
	KeySettings   = "settings"
)

const saveTimeout = 5 * time.Second

// Persistence is the storage adapter plugged in underneath the stores.
// Load returns nil data and a nil error when key has never been saved.
type Persistence interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// Options configures a store. The zero value keeps state in memory only.
type Options struct {
	Persistence Persistence
	Logger      *log.Logger
	Now         func() time.Time
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return o.Logger
}

func (o Options) now() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

// guarded holds one store's state and serializes its mutations.
type guarded[S any] struct {
	mu     sync.RWMutex
	state  S
	key    string
	p      Persistence
	logger *log.Logger
}

func newGuarded[S any](ctx context.Context, key string, initial S, opts Options) (*guarded[S], error) {
	g := &guarded[S]{state: initial, key: key, p: opts.Persistence, logger: opts.logger()}
	if g.p == nil {
		return g, nil
	}
	data, err := g.p.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(data, &g.state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return g, nil
}

func (g *guarded[S]) read(fn func(S)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.state)
}

// write hands fn a shallow copy of the state. fn must replace, never modify in
// place, any slice it changes. The copy is committed only when fn returns true.
func (g *guarded[S]) write(fn func(*S) bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.state
	if !fn(&next) {
		return false
	}
	g.state = next
	g.save(next)
	return true
}

func (g *guarded[S]) save(state S) {
	if g.p == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		g.logger.Printf("[error] encode %s: %v", g.key, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := g.p.Save(ctx, g.key, data); err != nil {
		g.logger.Printf("[warn] persist %s: %v", g.key, err)
	}
}
