package preference

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/infra/logger"
	"github.com/kilianp07/fjsm/internal/eventbus"
)

// Store holds the active database selection.
type Store struct {
	mu      sync.RWMutex
	current model.DatabaseSelection
	key     string
	persist Persister
	bus     *eventbus.TypedBus[model.DatabaseSelection]
	log     logger.Logger
}

// NewStore reads the persisted slot once and returns a Store initialised
// with its normalized value, or PG when the slot is empty.
func NewStore(ctx context.Context, p Persister, key string, log logger.Logger) (*Store, error) {
	if p == nil {
		p = NewMemoryPersister()
	}
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	raw, ok, err := p.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	cur := model.DefaultSelection
	if ok && raw != "" {
		cur = model.Normalize(raw)
	}
	log.Debugw("selection loaded", map[string]any{"key": key, "db": cur.String(), "stored": ok})
	return &Store{
		current: cur,
		key:     key,
		persist: p,
		bus:     eventbus.NewTyped[model.DatabaseSelection](),
		log:     log,
	}, nil
}

// Current returns the active selection.
func (s *Store) Current() model.DatabaseSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set normalizes v, makes it the active selection and writes it to the
// persisted slot before returning. Current reflects the new value even
// when the write fails; the write error is returned to the caller.
// Subscribers see changes in the order they were written.
func (s *Store) Set(ctx context.Context, v any) (model.DatabaseSelection, error) {
	sel := model.Normalize(v)
	s.mu.Lock()
	prev := s.current
	s.current = sel
	err := s.persist.Save(ctx, s.key, sel.String())
	s.bus.Publish(sel)
	s.mu.Unlock()

	s.log.Debugw("selection set", map[string]any{"from": prev.String(), "to": sel.String()})
	if err != nil {
		return sel, fmt.Errorf("persist %s: %w", s.key, err)
	}
	return sel, nil
}

// Subscribe returns a channel receiving every selection passed to Set.
func (s *Store) Subscribe() <-chan model.DatabaseSelection { return s.bus.Subscribe() }

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch <-chan model.DatabaseSelection) { s.bus.Unsubscribe(ch) }

// Stats describes the change subscriptions of a Store.
type Stats struct {
	Observers int    `json:"observers"`
	Dropped   uint64 `json:"dropped"`
}

// Stats reports the live subscriptions and how many changes slow
// subscribers missed.
func (s *Store) Stats() Stats {
	return Stats{Observers: s.bus.Subscribers(), Dropped: s.bus.Dropped()}
}

// Close closes all subscriptions and the persister.
func (s *Store) Close() error {
	s.bus.Close()
	return s.persist.Close()
}
