package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	c := &Config{}
	c.applyDefaults()

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, "development", c.Server.Env)
	assert.Equal(t, 25, c.Gateway.ReportEveryNMessages)
	assert.Equal(t, 0.95, c.Gateway.MinCoverage)
	assert.Equal(t, 3, c.Gateway.MaxViolations)
	assert.Equal(t, "memory", c.Audit.Backend)
	assert.Equal(t, "heuristic", c.Classifier.Kind)
	assert.Equal(t, 4.2, c.Classifier.EntropyThreshold)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.False(t, c.Gateway.ReportRejectionIsViolation)
}

func TestApplyDefaultsPopulatesRiskTiers(t *testing.T) {
	c := &Config{}
	c.applyDefaults()

	assert.Equal(t, 50, c.RiskTiers.Low.ReportEveryNMessages)
	assert.True(t, c.RiskTiers.High.EvaluatorRequired)
	assert.True(t, c.RiskTiers.Critical.EvaluatorRequired)
	assert.False(t, c.RiskTiers.Medium.EvaluatorRequired)
}

func TestApplyDefaultsDoesNotOverrideExplicitValues(t *testing.T) {
	c := &Config{Gateway: GatewayConfig{MaxViolations: 7}}
	c.applyDefaults()
	assert.Equal(t, 7, c.Gateway.MaxViolations)
}

func TestApplyEnvOverridesReadsEnvironment(t *testing.T) {
	c := &Config{}
	c.applyDefaults()

	t.Setenv("MAX_VIOLATIONS", "9")
	t.Setenv("REPORT_REJECTION_IS_VIOLATION", "true")
	t.Setenv("REDIS_ENABLED", "true")
	c.applyEnvOverrides()

	assert.Equal(t, 9, c.Gateway.MaxViolations)
	assert.True(t, c.Gateway.ReportRejectionIsViolation)
	assert.True(t, c.Redis.Enabled)
}

func TestTierForFallsBackToMedium(t *testing.T) {
	c := &Config{}
	c.applyDefaults()

	assert.Equal(t, c.RiskTiers.Medium, c.TierFor("unknown"))
	assert.Equal(t, c.RiskTiers.High, c.TierFor("high"))
}

func TestIsProduction(t *testing.T) {
	c := &Config{Server: ServerConfig{Env: "production"}}
	assert.True(t, c.IsProduction())

	c.Server.Env = "staging"
	assert.False(t, c.IsProduction())
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	os.Unsetenv("OCX_TEST_VAR")
	assert.Equal(t, "fallback", getEnv("OCX_TEST_VAR", "fallback"))

	t.Setenv("OCX_TEST_VAR", "set")
	assert.Equal(t, "set", getEnv("OCX_TEST_VAR", "fallback"))
}
