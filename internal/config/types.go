package config

import "time"

// Config represents the complete tenantforge configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Platform PlatformConfig `yaml:"platform"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Export   ExportConfig   `yaml:"export"`
	Ledger   LedgerConfig   `yaml:"ledger,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	LogLevel string `yaml:"log_level"`
}

// PlatformConfig defines how to reach the analytics platform REST APIs.
type PlatformConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token is the bearer token used for every call. ${ENV_VAR} references
	// are expanded at load time so the token never lives in the file.
	Token      string        `yaml:"token"`
	CapacityID string        `yaml:"capacity_id,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// JobsConfig defines long-running-operation polling behavior.
type JobsConfig struct {
	// PollInterval is the delay between job status reads when the platform
	// gives no retry-after hint.
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxWait bounds the total time spent polling one job. Zero means poll
	// until the job is terminal or the run is cancelled.
	MaxWait time.Duration `yaml:"max_wait,omitempty"`
	// StepDelay is the pause between consecutive provisioning calls so bulk
	// workflows stay under the platform's rate limits. Zero disables it.
	StepDelay time.Duration `yaml:"step_delay,omitempty"`
}

// ExportConfig defines local definition-export behavior.
type ExportConfig struct {
	Root string `yaml:"root"`
	// ItemDelay is the pause between per-item definition fetches so bulk
	// exports stay under the platform's throttling limits.
	ItemDelay time.Duration `yaml:"item_delay,omitempty"`
}

// LedgerConfig defines the optional local provisioning ledger.
type LedgerConfig struct {
	// Path of the SQLite database. Empty disables the ledger.
	Path string `yaml:"path,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel: "INFO",
		},
		Platform: PlatformConfig{
			Timeout: 30 * time.Second,
		},
		Jobs: JobsConfig{
			PollInterval: 10 * time.Second,
		},
		Export: ExportConfig{
			Root:      "exports",
			ItemDelay: 7 * time.Second,
		},
	}
}
