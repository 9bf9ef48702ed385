// Package config loads the service's YAML configuration, with ${VAR}
// expansion from the environment, and watches the file for edits.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after decoding.
type Validator interface {
	Validate() error
}

// Load decodes filename into target after expanding environment variables
// and runs target's Validate method when it has one.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config: validate %s: %w", filename, err)
		}
	}
	return nil
}

// LoadWithDefaults loads filename, or fallback when filename does not exist,
// and returns the path that was read. The returned path is the one to watch
// for reloads.
func LoadWithDefaults[T any](filename, fallback string, target *T) (string, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if fallback == "" || fallback == filename {
			return "", fmt.Errorf("config: %s not found", filename)
		}
		filename = fallback
	}
	if err := Load(filename, target); err != nil {
		return "", err
	}
	return filename, nil
}
