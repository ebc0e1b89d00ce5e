package config

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     Config
	embeddedConfigErr  error
)

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// EmbeddedDefault parses and returns the embedded default configuration.
// Callers receive a deep copy and may modify it freely.
func EmbeddedDefault() (Config, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		embeddedConfig, embeddedConfigErr = Parse(embeddedDefaultConfig)
		if embeddedConfigErr != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", embeddedConfigErr)
		}
	})
	if embeddedConfigErr != nil {
		return Config{}, embeddedConfigErr
	}
	return embeddedConfig.Clone(), nil
}

// Parse decodes a YAML (or JSON) config document without applying defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	out := c
	if c.App.Debug.MaxEvents != nil {
		v := *c.App.Debug.MaxEvents
		out.App.Debug.MaxEvents = &v
	}
	if c.Pages != nil {
		out.Pages = make([]Page, len(c.Pages))
		for i, p := range c.Pages {
			out.Pages[i] = p.clone()
		}
	}
	return out
}

func (p Page) clone() Page {
	out := p
	if p.ResetAxis != nil {
		v := *p.ResetAxis
		out.ResetAxis = &v
	}
	out.Scatter.Presets = append([]Preset(nil), p.Scatter.Presets...)
	return out
}
