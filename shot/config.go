package shot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration file: optimizer tunables plus skill
// selection. Custom presets extend (and may shadow) the built-in catalog.
type Config struct {
	Skill     string          `yaml:"skill"`
	Presets   []SkillPreset   `yaml:"presets,omitempty"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.Skill == "" {
		config.Skill = "mid"
	}
	for i, p := range config.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("presets[%d].name is required", i)
		}
		if p.OfflineDeg <= 0 || p.DistPct <= 0 {
			return nil, fmt.Errorf("presets[%d] (%s): offlineDeg and distPct must be positive", i, p.Name)
		}
	}
	if config.Optimizer.Strategy == "" {
		config.Optimizer.Strategy = StrategyRingGrid
	}
	if err := config.Optimizer.withDefaults().Validate(); err != nil {
		return nil, fmt.Errorf("optimizer config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ResolveSkill returns the selected skill preset, preferring custom presets
// over the built-in catalog.
func (c *Config) ResolveSkill() (SkillPreset, error) {
	for _, p := range c.Presets {
		if p.Name == c.Skill {
			return p, nil
		}
	}
	if p, ok := PresetByName(c.Skill); ok {
		return p, nil
	}
	return SkillPreset{}, fmt.Errorf("unknown skill preset %q", c.Skill)
}
