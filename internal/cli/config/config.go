// Package config provides configuration management for the pbilint CLI.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"time"

	"github.com/trannammai/pbilint/internal/analyzer"
	"github.com/trannammai/pbilint/internal/platform"
	"github.com/trannammai/pbilint/internal/rules"
)

// Config holds all CLI configuration options.
type Config struct {
	// RulesURL is where the best-practice rule collection is fetched from.
	// The shipped default is the published public collection; CI setups and
	// tests point this at their own fixture.
	RulesURL string `koanf:"rules_url"`
	// TimeoutSeconds bounds the rule collection fetch.
	TimeoutSeconds int `koanf:"timeout"`
	// AnalyzerCommand is the external analyzer invocation; {model} and
	// {rules} are substituted per run.
	AnalyzerCommand []string `koanf:"analyzer_command"`
	// MaxDepth bounds the workspace item search of the lint command.
	MaxDepth int `koanf:"max_depth"`
	// OutputFormat selects the renderer mode (auto|text|markdown|json).
	OutputFormat string `koanf:"output"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Quiet discards all collaborator logging.
	Quiet bool `koanf:"quiet"`
}

// Default configuration values.
const (
	DefaultTimeoutSeconds = 30
	DefaultOutput         = "auto"
)

// FetchTimeout returns the rule fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	secs := c.TimeoutSeconds
	if secs <= 0 {
		secs = DefaultTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		RulesURL:        rules.DefaultURL,
		TimeoutSeconds:  DefaultTimeoutSeconds,
		AnalyzerCommand: analyzer.DefaultCommand,
		MaxDepth:        platform.DefaultMaxDepth,
		OutputFormat:    DefaultOutput,
	}
}
