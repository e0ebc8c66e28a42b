package preference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fjsm/core/factory"
	"github.com/kilianp07/fjsm/core/model"
	corepref "github.com/kilianp07/fjsm/core/preference"
)

func roundTrip(t *testing.T, p corepref.Persister) {
	t.Helper()
	ctx := context.Background()
	_, ok, err := p.Load(ctx, corepref.DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Save(ctx, corepref.DefaultKey, "PG"))
	require.NoError(t, p.Save(ctx, corepref.DefaultKey, "MONGO"))
	require.NoError(t, p.Save(ctx, "other", "x"))

	v, ok, err := p.Load(ctx, corepref.DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MONGO", v)
}

func TestFileStore_RoundTrip(t *testing.T) {
	p, err := NewFileStore(filepath.Join(t.TempDir(), "state", "prefs.json"))
	require.NoError(t, err)
	roundTrip(t, p)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))
	p, err := NewFileStore(path)
	require.NoError(t, err)
	_, _, err = p.Load(context.Background(), corepref.DefaultKey)
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	p, err := NewSQLiteStore("file:prefs_roundtrip?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = p.Close() }()
	roundTrip(t, p)
}

func TestStoreReloadAcrossBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfgs := []factory.ModuleConfig{
		{Type: "file", Conf: map[string]any{"path": filepath.Join(dir, "prefs.json")}},
		{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "prefs.db")}},
	}
	for _, cfg := range cfgs {
		t.Run(cfg.Type, func(t *testing.T) {
			p, err := corepref.NewPersister(cfg)
			require.NoError(t, err)
			s, err := corepref.NewStore(ctx, p, corepref.DefaultKey, nil)
			require.NoError(t, err)
			assert.Equal(t, model.SelectionPG, s.Current())
			_, err = s.Set(ctx, "mongo")
			require.NoError(t, err)
			require.NoError(t, s.Close())

			p, err = corepref.NewPersister(cfg)
			require.NoError(t, err)
			reloaded, err := corepref.NewStore(ctx, p, corepref.DefaultKey, nil)
			require.NoError(t, err)
			defer func() { _ = reloaded.Close() }()
			assert.Equal(t, model.SelectionMongo, reloaded.Current())
		})
	}
}

func TestBackendConfigErrors(t *testing.T) {
	_, err := corepref.NewPersister(factory.ModuleConfig{Type: "file"})
	assert.Error(t, err)
	_, err = corepref.NewPersister(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{}})
	assert.Error(t, err)
}
