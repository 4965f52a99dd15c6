// Package config defines the gateway's immutable-after-startup
// configuration: YAML file plus environment variable overrides.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v2"
)

// Config is the full gateway configuration tree.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	RiskTiers  RiskTierConfig   `yaml:"risk_tiers"`
	Audit      AuditConfig      `yaml:"audit"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Redis      RedisConfig      `yaml:"redis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

// GatewayConfig holds the compliance enforcement thresholds.
type GatewayConfig struct {
	ReportIntervalSec     int     `yaml:"report_interval_sec"`
	ReportEveryNMessages  int     `yaml:"report_every_n_messages"`
	MinCoverage           float64 `yaml:"min_coverage"`
	MinSummaryLength      int     `yaml:"min_summary_length"`
	ViolationCooldownHrs  int     `yaml:"violation_cooldown_hours"`
	MaxViolations         int     `yaml:"max_violations"`
	SkewToleranceSec      int     `yaml:"skew_tolerance_sec"`
	ThrottleRate          int     `yaml:"throttle_rate"`
	ThrottleWindowSec     int     `yaml:"throttle_window_sec"`
	RetentionDays         int     `yaml:"retention_days"`

	// ReportRejectionIsViolation makes a rejected report (failed validation
	// or insufficient coverage) also record a gating violation, in addition
	// to the report-failure metric and event it always produces.
	ReportRejectionIsViolation bool `yaml:"report_rejection_is_violation"`
}

// TierThresholds is the per-risk-tier override of the two cadence knobs.
type TierThresholds struct {
	ReportIntervalSec    int  `yaml:"report_interval_sec"`
	ReportEveryNMessages int  `yaml:"report_every_n_messages"`
	EvaluatorRequired    bool `yaml:"evaluator_required"`
}

// RiskTierConfig is the per-risk-tier cadence table, keyed by risk_tier name.
type RiskTierConfig struct {
	Low      TierThresholds `yaml:"low"`
	Medium   TierThresholds `yaml:"medium"`
	High     TierThresholds `yaml:"high"`
	Critical TierThresholds `yaml:"critical"`
}

// AuditConfig selects the audit sink backend.
type AuditConfig struct {
	Backend string `yaml:"backend"` // "memory" | "postgres"
	DSN     string `yaml:"dsn"`
}

// ClassifierConfig selects the novelty classifier implementation.
type ClassifierConfig struct {
	Kind             string  `yaml:"kind"` // "heuristic" | "entropy"
	EntropyThreshold float64 `yaml:"entropy_threshold"`
}

// RedisConfig controls the optional, advisory novel_pending mirror.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the process-wide singleton config, loading it from
// CONFIG_PATH (default config.yaml) on first call and applying env
// overrides and defaults on top.
func Get() *Config {
	once.Do(func() {
		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file, using defaults", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyDefaults()
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}

	g := &c.Gateway
	setIntDefault(&g.ReportIntervalSec, 60)
	setIntDefault(&g.ReportEveryNMessages, 25)
	setFloatDefault(&g.MinCoverage, 0.95)
	setIntDefault(&g.MinSummaryLength, 30)
	setIntDefault(&g.ViolationCooldownHrs, 24)
	setIntDefault(&g.MaxViolations, 3)
	setIntDefault(&g.SkewToleranceSec, 5)
	setIntDefault(&g.ThrottleRate, 1)
	setIntDefault(&g.ThrottleWindowSec, 5)
	setIntDefault(&g.RetentionDays, 30)

	if c.RiskTiers.Low.ReportIntervalSec == 0 {
		c.RiskTiers.Low = TierThresholds{ReportIntervalSec: 120, ReportEveryNMessages: 50}
	}
	if c.RiskTiers.Medium.ReportIntervalSec == 0 {
		c.RiskTiers.Medium = TierThresholds{ReportIntervalSec: 60, ReportEveryNMessages: 25}
	}
	if c.RiskTiers.High.ReportIntervalSec == 0 {
		c.RiskTiers.High = TierThresholds{ReportIntervalSec: 15, ReportEveryNMessages: 10, EvaluatorRequired: true}
	}
	if c.RiskTiers.Critical.ReportIntervalSec == 0 {
		c.RiskTiers.Critical = TierThresholds{ReportIntervalSec: 5, ReportEveryNMessages: 5, EvaluatorRequired: true}
	}

	if c.Audit.Backend == "" {
		c.Audit.Backend = "memory"
	}
	if c.Classifier.Kind == "" {
		c.Classifier.Kind = "heuristic"
	}
	setFloatDefault(&c.Classifier.EntropyThreshold, 4.2)

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

// applyEnvOverrides lets every tunable be overridden without a redeploy.
func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("GATEWAY_PORT", c.Server.Port)
	c.Server.Env = getEnv("OCX_ENV", c.Server.Env)

	g := &c.Gateway
	g.ReportIntervalSec = getEnvInt("REPORT_INTERVAL_SEC", g.ReportIntervalSec)
	g.ReportEveryNMessages = getEnvInt("REPORT_EVERY_N_MESSAGES", g.ReportEveryNMessages)
	g.MinCoverage = getEnvFloat("MIN_COVERAGE", g.MinCoverage)
	g.MinSummaryLength = getEnvInt("MIN_SUMMARY_LENGTH", g.MinSummaryLength)
	g.ViolationCooldownHrs = getEnvInt("VIOLATION_COOLDOWN_HOURS", g.ViolationCooldownHrs)
	g.MaxViolations = getEnvInt("MAX_VIOLATIONS", g.MaxViolations)
	g.SkewToleranceSec = getEnvInt("SKEW_TOLERANCE_SEC", g.SkewToleranceSec)
	g.ThrottleRate = getEnvInt("THROTTLE_RATE", g.ThrottleRate)
	g.ThrottleWindowSec = getEnvInt("THROTTLE_WINDOW_SEC", g.ThrottleWindowSec)
	g.RetentionDays = getEnvInt("RETENTION_DAYS", g.RetentionDays)
	g.ReportRejectionIsViolation = getEnvBool("REPORT_REJECTION_IS_VIOLATION", g.ReportRejectionIsViolation)

	c.Audit.Backend = getEnv("AUDIT_BACKEND", c.Audit.Backend)
	c.Audit.DSN = getEnv("AUDIT_POSTGRES_DSN", c.Audit.DSN)
	c.Classifier.Kind = getEnv("CLASSIFIER", c.Classifier.Kind)
	c.Classifier.EntropyThreshold = getEnvFloat("CLASSIFIER_ENTROPY_THRESHOLD", c.Classifier.EntropyThreshold)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
}

// TierFor returns the cadence thresholds for a risk tier, defaulting to the
// medium tier for an unrecognized or empty value.
func (c *Config) TierFor(riskTier string) TierThresholds {
	switch riskTier {
	case "low":
		return c.RiskTiers.Low
	case "high":
		return c.RiskTiers.High
	case "critical":
		return c.RiskTiers.Critical
	default:
		return c.RiskTiers.Medium
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setIntDefault(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setFloatDefault(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
