package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a YAML file. Missing keys fall
// back to Defaults; ${ENV_VAR} references in the platform token are
// expanded from the environment.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", configPath, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", configPath, err)
	}

	cfg.Platform.Token = expandEnv(cfg.Platform.Token)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// expandEnv replaces ${VAR} references with environment values. Unset
// variables expand to the empty string, which validate then rejects for
// required fields.
func expandEnv(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func validate(cfg *Config) error {
	if cfg.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if _, err := url.ParseRequestURI(cfg.Platform.BaseURL); err != nil {
		return fmt.Errorf("platform.base_url %q is not a valid URL: %w", cfg.Platform.BaseURL, err)
	}
	if cfg.Platform.Token == "" {
		return fmt.Errorf("platform.token is required (a ${ENV_VAR} reference may be unset)")
	}
	if cfg.Jobs.PollInterval <= 0 {
		return fmt.Errorf("jobs.poll_interval must be positive")
	}
	if cfg.Jobs.MaxWait < 0 {
		return fmt.Errorf("jobs.max_wait must not be negative")
	}
	if cfg.Jobs.StepDelay < 0 {
		return fmt.Errorf("jobs.step_delay must not be negative")
	}
	if cfg.Export.Root == "" {
		return fmt.Errorf("export.root is required")
	}
	return nil
}
