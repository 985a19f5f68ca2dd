package vision

import (
	"encoding/json"
	"log"
	"os"

	"github.com/pkg/errors"
)

// LoadClassifierConfig reads a JSON tuning file layered over the defaults, so a
// file only needs the fields it overrides. An empty path returns the defaults.
func LoadClassifierConfig(path string) (ClassifierConfig, error) {
	cfg := DefaultClassifierConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read classifier config")
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultClassifierConfig(), errors.Wrap(err, "failed to unmarshal classifier config")
	}

	log.Printf("Loaded classifier tuning from %s (fog brightness=%.0f, smoke gate saturation=%.0f, smog turbidity=%.0f)",
		path, cfg.Fog.BrightnessThreshold, cfg.Smoke.GateSaturation, cfg.Smog.Turbidity)

	return cfg, nil
}

// WriteClassifierConfig writes cfg as indented JSON, typically to seed a
// tuning file from DefaultClassifierConfig.
func WriteClassifierConfig(path string, cfg ClassifierConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal classifier config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write classifier config")
	}

	log.Printf("Wrote classifier tuning to %s", path)
	return nil
}
