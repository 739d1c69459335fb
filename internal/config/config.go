// Package config loads CLI settings from an optional .env file, an optional
// YAML file and THREADEXEC_* environment variables, in that order of
// increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/petasbytes/go-threadexec/api"
	"github.com/petasbytes/go-threadexec/execution"
)

const envPrefix = "THREADEXEC_"

// DotEnvFile is read from the working directory when present. Variables that
// are already set win over the file.
var DotEnvFile = ".env"

type Config struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	ParamID        string        `yaml:"param_id"`
	SystemPrompt   string        `yaml:"system_prompt"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	Tools          []string      `yaml:"tools"`
	HumanInTheLoop bool          `yaml:"human_in_the_loop"`
	LogLevel       string        `yaml:"log_level"`
	ReadRoot       string        `yaml:"read_root"`
	WriteRoot      string        `yaml:"write_root"`
}

func defaults() Config {
	return Config{
		BaseURL:      api.DefaultBaseURL,
		PollInterval: execution.DefaultPollInterval,
		LogLevel:     "info",
	}
}

// Load builds a Config. path may be empty; a named file that doesn't exist is
// an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	str("BASE_URL", &cfg.BaseURL)
	str("API_KEY", &cfg.APIKey)
	str("PARAM_ID", &cfg.ParamID)
	str("SYSTEM_PROMPT", &cfg.SystemPrompt)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("READ_ROOT", &cfg.ReadRoot)
	str("WRITE_ROOT", &cfg.WriteRoot)

	if v, ok := os.LookupEnv(envPrefix + "POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPOLL_INTERVAL: %w", envPrefix, err)
		}
		cfg.PollInterval = d
	}
	if v, ok := os.LookupEnv(envPrefix + "HUMAN_IN_THE_LOOP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHUMAN_IN_THE_LOOP: %w", envPrefix, err)
		}
		cfg.HumanInTheLoop = b
	}
	if v, ok := os.LookupEnv(envPrefix + "TOOLS"); ok {
		cfg.Tools = splitList(v)
	}
	return nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.ParamID == "" {
		errs = append(errs, errors.New("param_id is required"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel as a slog level name (debug, info, warn, error).
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
