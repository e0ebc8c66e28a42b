package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/fjsm/core/factory"
	"github.com/kilianp07/fjsm/core/preference"
)

// PreferenceConfig selects where the database selection is persisted.
type PreferenceConfig struct {
	// Key names the persisted slot.
	Key   string               `json:"key"`
	Store factory.ModuleConfig `json:"store"`
}

// DefaultPreferencePath is the file used when no store is configured.
func DefaultPreferencePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fjsm-preferences.json"
	}
	return filepath.Join(dir, "fjsm", "preferences.json")
}

// SetDefaults applies sane defaults.
func (c *PreferenceConfig) SetDefaults() {
	if c.Key == "" {
		c.Key = preference.DefaultKey
	}
	if c.Store.Type == "" {
		c.Store.Type = "file"
	}
	if c.Store.Type == "file" {
		if c.Store.Conf == nil {
			c.Store.Conf = map[string]any{}
		}
		if p, _ := c.Store.Conf["path"].(string); p == "" {
			c.Store.Conf["path"] = DefaultPreferencePath()
		}
	}
}

// Validate checks mandatory fields.
func (c PreferenceConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("key is required")
	}
	switch c.Store.Type {
	case "memory":
	case "file", "sqlite":
		if p, _ := c.Store.Conf["path"].(string); p == "" {
			return fmt.Errorf("%s store requires conf.path", c.Store.Type)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store.Type)
	}
	return nil
}
