package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the orchestrator looks for its configuration unless
// SYSUP_CONFIG points elsewhere.
const DefaultPath = "/etc/sysup/config.yaml"

// Config holds the orchestrator-level settings: where durable state lives,
// where reports and logs are written, and the optional remote archive.
type Config struct {
	StateDir    string `yaml:"state_dir"`
	LogDir      string `yaml:"log_dir"`
	ReportDir   string `yaml:"report_dir"`
	AnswerFile  string `yaml:"answerfile"`
	UserChoices string `yaml:"userchoices"`

	Archive *ArchiveConfig `yaml:"archive,omitempty"`
}

// ArchiveConfig configures the optional upload of the final report bundle to
// a central S3 bucket. Upload failures never fail the upgrade.
type ArchiveConfig struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		StateDir:    "/var/lib/sysup",
		LogDir:      "/var/log/sysup",
		ReportDir:   "/var/log/sysup/reports",
		AnswerFile:  "/var/log/sysup/answerfile",
		UserChoices: "/var/log/sysup/answerfile.userchoices",
	}
}

// Path returns the configuration file location, honoring SYSUP_CONFIG.
func Path() string {
	if p := os.Getenv("SYSUP_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the configuration from path. A missing file is not an error;
// the defaults are returned instead. Fields left empty in the file fall back
// to their defaults as well.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	def := Default()
	if cfg.StateDir == "" {
		cfg.StateDir = def.StateDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = def.LogDir
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = def.ReportDir
	}
	if cfg.AnswerFile == "" {
		cfg.AnswerFile = def.AnswerFile
	}
	if cfg.UserChoices == "" {
		cfg.UserChoices = def.UserChoices
	}

	return cfg, nil
}

// ExecutionsDir returns the directory holding per-execution durable state.
func (c *Config) ExecutionsDir() string {
	return filepath.Join(c.StateDir, "executions")
}

// AuditLogPath returns the path of the append-only audit journal.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.StateDir, "audit.log")
}
