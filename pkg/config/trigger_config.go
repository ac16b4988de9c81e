// Package config provides configuration loading for trigger sources.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TriggerConfigFile is the structure of the triggers.yaml file. Each source
// entry names a trigger source type (queue, schedule) and carries the
// type-specific configuration passed to its constructor.
type TriggerConfigFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	Type          string         `yaml:"type"`
	Name          string         `yaml:"name"`
	Configuration map[string]any `yaml:"configuration"`
}

// LoadTriggerConfig loads trigger source configuration from a YAML file.
func LoadTriggerConfig(filepath string) (TriggerConfigFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return TriggerConfigFile{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile TriggerConfigFile

	err = yaml.Unmarshal(data, &configFile)
	if err != nil {
		return TriggerConfigFile{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	for i, source := range configFile.Sources {
		if source.Type == "" {
			return TriggerConfigFile{}, fmt.Errorf("source %d is missing a type", i)
		}

		if source.Configuration == nil {
			configFile.Sources[i].Configuration = make(map[string]any)
		}
	}

	return configFile, nil
}
