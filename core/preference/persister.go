package preference

import (
	"context"
	"sync"

	"github.com/kilianp07/fjsm/core/factory"
)

// DefaultKey is the slot name the selection is stored under.
const DefaultKey = "fjsm_db"

// Persister is a durable string slot store.
type Persister interface {
	// Load returns the stored value and whether the key exists.
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Close() error
}

var backendRegistry = factory.NewRegistry[Persister]()

// RegisterBackend adds a persister factory identified by name.
func RegisterBackend(name string, f factory.Factory[Persister]) error {
	return backendRegistry.Register(name, f)
}

// NewPersister creates the persister described by cfg. An empty type yields
// an in-memory slot.
func NewPersister(cfg factory.ModuleConfig) (Persister, error) {
	if cfg.Type == "" {
		return NewMemoryPersister(), nil
	}
	return backendRegistry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string { return backendRegistry.Names() }

func init() {
	_ = RegisterBackend("memory", func(map[string]any) (Persister, error) {
		return NewMemoryPersister(), nil
	})
}

// MemoryPersister keeps slots in process memory. It is what tests and
// ephemeral runs use.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryPersister returns an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: map[string]string{}}
}

func (m *MemoryPersister) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryPersister) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersister) Close() error { return nil }
