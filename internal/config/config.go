// Package config assembles the effective settings for a run. Sources are
// layered: a .env file when present, then the YAML config file, then
// VERDICT_* environment variables, then built-in defaults. Command-line
// flags sit on top of all of these and are applied by the CLI layer.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/verdict-ml/verdict/internal/attribution"
	"github.com/verdict-ml/verdict/internal/dataset"
	"github.com/verdict-ml/verdict/internal/store"
)

// Defaults for knobs no source set.
const (
	DefaultMaxLen = 512
	DefaultOut    = "report.html"
	DefaultAddr   = ":8080"
)

// Config carries every knob the CLI exposes. Path fields go through
// os.ExpandEnv, so values like $HOME/models/guilt-bert work from any
// source.
type Config struct {
	Checkpoint string `yaml:"checkpoint"`
	Dataset    string `yaml:"dataset"`
	Records    int    `yaml:"records"`
	MaxLen     int    `yaml:"max_len"`
	Steps      int    `yaml:"steps"`
	Method     string `yaml:"method"`
	Out        string `yaml:"out"`
	DB         string `yaml:"db"`
	Addr       string `yaml:"addr"`
	Debug      bool   `yaml:"debug"`
}

// Load builds the configuration from every source below the flag layer.
// path may be empty, meaning no config file; a missing .env is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	c := &Config{}
	if path != "" {
		if err := c.readFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	c.applyDefaults()

	c.Checkpoint = os.ExpandEnv(c.Checkpoint)
	c.Dataset = os.ExpandEnv(c.Dataset)
	c.Out = os.ExpandEnv(c.Out)
	c.DB = os.ExpandEnv(c.DB)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return errors.Wrapf(err, "failed to decode config file: %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Checkpoint = getEnv("VERDICT_CHECKPOINT", c.Checkpoint)
	c.Dataset = getEnv("VERDICT_DATASET", c.Dataset)
	c.Records = getEnvInt("VERDICT_RECORDS", c.Records)
	c.MaxLen = getEnvInt("VERDICT_MAX_LEN", c.MaxLen)
	c.Steps = getEnvInt("VERDICT_STEPS", c.Steps)
	c.Method = getEnv("VERDICT_METHOD", c.Method)
	c.Out = getEnv("VERDICT_OUT", c.Out)
	c.DB = getEnv("VERDICT_DB", c.DB)
	c.Addr = getEnv("VERDICT_ADDR", c.Addr)
	c.Debug = getEnvBool("VERDICT_DEBUG", c.Debug)
}

func (c *Config) applyDefaults() {
	if c.Records <= 0 {
		c.Records = dataset.DefaultHead
	}
	if c.MaxLen <= 0 {
		c.MaxLen = DefaultMaxLen
	}
	if c.Steps <= 0 {
		c.Steps = attribution.DefaultSteps
	}
	if c.Method == "" {
		c.Method = string(attribution.MethodTrapezoid)
	}
	if c.Out == "" {
		c.Out = DefaultOut
	}
	if c.DB == "" {
		c.DB = store.DefaultFileName
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
}

// Validate rejects values no layer should have produced.
func (c *Config) Validate() error {
	switch attribution.Method(c.Method) {
	case attribution.MethodTrapezoid, attribution.MethodGaussLegendre:
	default:
		return errors.Errorf("unknown attribution method: %s", c.Method)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value == "true" {
		return true
	}
	return defaultValue
}
