package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the nexttok configuration file (~/.config/nexttok/config.yaml).
// All fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Sampling defaults
	Temperature *float64 `yaml:"temperature"`
	TopK        *int64   `yaml:"top_k"`
	Stochastic  *bool    `yaml:"stochastic"`
	Steps       *int64   `yaml:"steps"`
	Seed        *int64   `yaml:"seed"`
	MaxContext  *int64   `yaml:"max_context"`

	// Predictor
	PredictorURL string `yaml:"predictor_url"`
	Vocab        *int64 `yaml:"vocab"`
	Hidden       *int64 `yaml:"hidden"`
	ModelSeed    *int64 `yaml:"model_seed"`
	Tokenizer    string `yaml:"tokenizer"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxSteps      *int64 `yaml:"max_steps"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nexttok", "config.yaml")
}

// generateSettings are the per-command sampling variables a config file may
// fill. Nil fields are skipped.
type generateSettings struct {
	steps      *int64
	temp       *float64
	topK       *int64
	stochastic *bool
	seed       *int64
}

// applyCommonConfig applies config file defaults to the shared predictor and
// tokenizer variables when the corresponding CLI flag was not explicitly set.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.PredictorURL != "" && !c.IsSet("predictor-url") {
		predictorURL = cfg.PredictorURL
	}
	if cfg.Tokenizer != "" && !c.IsSet("tokenizer") {
		tokenizerName = cfg.Tokenizer
	}
	if cfg.Vocab != nil && !c.IsSet("vocab") {
		vocabSize = *cfg.Vocab
	}
	if cfg.Hidden != nil && !c.IsSet("hidden") {
		hiddenSize = *cfg.Hidden
	}
	if cfg.ModelSeed != nil && !c.IsSet("model-seed") {
		modelSeed = *cfg.ModelSeed
	}
	if cfg.MaxContext != nil && !c.IsSet("max-context") {
		maxContext = *cfg.MaxContext
	}
}

// applyGenerateConfig applies config file defaults to sampling variables.
func applyGenerateConfig(c *cli.Command, cfg Config, s generateSettings) {
	applyCommonConfig(c, cfg)
	if s.steps != nil && cfg.Steps != nil && !c.IsSet("steps") {
		*s.steps = *cfg.Steps
	}
	if s.temp != nil && cfg.Temperature != nil && !c.IsSet("temperature") {
		*s.temp = *cfg.Temperature
	}
	if s.topK != nil && cfg.TopK != nil && !c.IsSet("top-k") {
		*s.topK = *cfg.TopK
	}
	if s.stochastic != nil && cfg.Stochastic != nil && !c.IsSet("stochastic") {
		*s.stochastic = *cfg.Stochastic
	}
	if s.seed != nil && cfg.Seed != nil && !c.IsSet("seed") {
		*s.seed = *cfg.Seed
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, s generateSettings, maxSteps *int64) {
	applyGenerateConfig(c, cfg, s)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxSteps != nil && !c.IsSet("max-steps") {
		*maxSteps = *cfg.MaxSteps
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
