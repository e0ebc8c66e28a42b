package preference

import (
	"github.com/kilianp07/fjsm/core/factory"
	corepref "github.com/kilianp07/fjsm/core/preference"
)

// init registers the on-disk preference backends.
func init() {
	_ = corepref.RegisterBackend("file", func(conf map[string]any) (corepref.Persister, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewFileStore(c.Path)
	})

	_ = corepref.RegisterBackend("sqlite", func(conf map[string]any) (corepref.Persister, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}
