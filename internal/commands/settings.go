package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
)

// Settings are environment-provided overrides that apply before flags.
type Settings struct {
	ConfigPath    string `env:"BANKIMPORT_CONFIG"`
	PdftotextPath string `env:"BANKIMPORT_PDFTOTEXT"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parsing environment: %w", err)
	}
	return s, nil
}

// defaultConfigPath is where the rule configuration lives unless
// overridden by flag or environment.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "bankimport", "config.yaml")
}
