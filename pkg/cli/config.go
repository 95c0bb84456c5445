package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.schemamerge/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile represents a single named configuration profile.
type Profile struct {
	Host      string `yaml:"host,omitempty"`
	Output    string `yaml:"output,omitempty"`
	SchemaDir string `yaml:"schema-dir,omitempty"`
}

// ActiveProfile returns the override profile, or the current one. A missing
// current profile yields an empty Profile; a missing override is an error.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	if override != "" {
		p, ok := c.Profiles[override]
		if !ok {
			return Profile{}, fmt.Errorf("profile %q not found", override)
		}
		return p, nil
	}
	return c.Profiles[c.CurrentProfile], nil
}

// ConfigDir returns the path to ~/.schemamerge/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".schemamerge")
}

// ConfigPath returns the path to ~/.schemamerge/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func emptyUserConfig() *UserConfig {
	return &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
}

// LoadUserConfig reads ~/.schemamerge/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// SaveUserConfig writes ~/.schemamerge/config.yaml.
func SaveUserConfig(cfg *UserConfig) error {
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}
