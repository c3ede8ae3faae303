package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the run settings that accompany a graph. Rollout and
// channel counts also decide the default shape of a "rollout" port.
type Config struct {
	GraphName    string `json:"Graph Name"`
	Iterations   int    `json:"Iterations" validate:"gte=0"`
	RolloutSteps int    `json:"Rollout Steps" validate:"gte=0"`
	NumChannels  int    `json:"Num Channels" validate:"gte=0"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		GraphName:    "rwtest",
		Iterations:   1,
		RolloutSteps: 1,
		NumChannels:  1,
	}
}

// configFile accepts counts written either as JSON numbers or as numeric
// strings; config editors tend to save everything as text.
type configFile struct {
	GraphName    *string      `json:"Graph Name"`
	Iterations   *json.Number `json:"Iterations"`
	RolloutSteps *json.Number `json:"Rollout Steps"`
	NumChannels  *json.Number `json:"Num Channels"`
}

// ParseConfig reads a config document over the defaults. Keys that are
// absent keep their default value; unknown keys are ignored.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var raw configFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("config decode: %w", err)
	}
	if raw.GraphName != nil {
		cfg.GraphName = *raw.GraphName
	}
	for _, f := range []struct {
		key string
		src *json.Number
		dst *int
	}{
		{"Iterations", raw.Iterations, &cfg.Iterations},
		{"Rollout Steps", raw.RolloutSteps, &cfg.RolloutSteps},
		{"Num Channels", raw.NumChannels, &cfg.NumChannels},
	} {
		if f.src == nil {
			continue
		}
		n, err := f.src.Int64()
		if err != nil {
			return Config{}, fmt.Errorf("config %q: %w", f.key, err)
		}
		if n < 0 {
			return Config{}, fmt.Errorf("config %q: must not be negative", f.key)
		}
		*f.dst = int(n)
	}
	return cfg, nil
}

// LoadConfig reads a config file. An empty path yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config read: %w", err)
	}
	return ParseConfig(data)
}

// SaveConfig writes cfg to path under the same keys LoadConfig reads.
func SaveConfig(path string, cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config write: %w", err)
	}
	return nil
}

// DefaultShape is the shape string a newly enabled port starts with.
func (c Config) DefaultShape(port string) string {
	if port == "rollout" {
		return fmt.Sprintf("(%d,%d)", c.NumChannels+1, c.RolloutSteps)
	}
	return "(1,)"
}
