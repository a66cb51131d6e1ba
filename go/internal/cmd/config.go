package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type textsConfig struct {
	Texts []string `yaml:"texts"`
}

// loadRaceTexts reads the passage corpus from a YAML file. An empty path
// means the built-in corpus is used.
func loadRaceTexts(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read texts file: %w", err)
	}

	var config textsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse texts file: %w", err)
	}
	return config.Texts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
