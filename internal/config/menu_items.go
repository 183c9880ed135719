package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

// MenuItemsConfig is the YAML file of default custom selection menu items.
type MenuItemsConfig struct {
	Items []types.MenuItem `yaml:"items"`
}

// LoadMenuItems reads and validates a menu items YAML file. Returns an
// os.ErrNotExist-wrapped error if the file is absent (caller silently
// skips in that case).
func LoadMenuItems(path string) ([]types.MenuItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu_items config: %w", err)
	}
	var cfg MenuItemsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("menu_items config: %w", err)
	}
	for i, item := range cfg.Items {
		if item.Label == "" {
			return nil, fmt.Errorf("menu_items config: items[%d] missing label", i)
		}
		if item.Key == "" {
			return nil, fmt.Errorf("menu_items config: items[%d] missing key", i)
		}
	}
	return cfg.Items, nil
}
