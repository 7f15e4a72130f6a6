package app

import (
	"errors"
	"fmt"
)

// Output formats of the result report.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenarioPath string // hcl file or directory

	LogFormat   string
	LogLevel    string
	WorkerCount int
	Output      string
}

// NewConfig validates cfg and fills the optional fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenarioPath == "" {
		return nil, errors.New("ScenarioPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WorkerCount must be positive, got %d", cfg.WorkerCount)
	}
	switch cfg.Output {
	case "":
		cfg.Output = OutputText
	case OutputText, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output %q: must be %q or %q", cfg.Output, OutputText, OutputJSON)
	}
	return &cfg, nil
}
