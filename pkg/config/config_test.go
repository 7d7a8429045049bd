package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, "data", c.Storage.DataDir)
	assert.Equal(t, "data/history.db", c.Storage.SQLitePath)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Len(t, c.Indicators, len(DefaultIndicators()))
	assert.NotEmpty(t, c.Charts.Groups)
	for _, ind := range c.Indicators {
		assert.NotZero(t, ind.Scale, ind.ID)
		assert.NotEmpty(t, ind.Frequency, ind.ID)
	}
}

func TestLoadAppliesDefaultsToIndicators(t *testing.T) {
	path := writeConfig(t, `
environment: test
storage:
  data_dir: /tmp/econ
indicators:
  - id: cpi
    label: CPI
    source: cso
    key: CPM01
    filters:
      Statistic: "12 months"
charts:
  groups:
    - name: prices
      indicators: [cpi]
`)
	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.Indicators, 1)
	assert.Equal(t, 1.0, c.Indicators[0].Scale)
	assert.Equal(t, "monthly", c.Indicators[0].Frequency)
	assert.Equal(t, "/tmp/econ/history.db", c.Storage.SQLitePath)
	assert.Equal(t, 6*time.Hour, c.MaxAgeFor(c.Indicators[0]))
}

func TestValidateRejectsBadIndicators(t *testing.T) {
	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"duplicate id", func(c *Config) {
			c.Indicators = append(c.Indicators, c.Indicators[0])
		}},
		{"static without fallback", func(c *Config) {
			c.Indicators = append(c.Indicators, IndicatorConfig{ID: "x", Label: "X", Source: "static", Scale: 1, Frequency: "monthly"})
		}},
		{"missing key", func(c *Config) {
			c.Indicators = append(c.Indicators, IndicatorConfig{ID: "x", Label: "X", Source: "ecb", Scale: 1, Frequency: "daily"})
		}},
		{"unknown source", func(c *Config) {
			c.Indicators[0].Source = "bloomberg"
		}},
		{"unknown chart indicator", func(c *Config) {
			c.Charts.Groups = append(c.Charts.Groups, ChartGroup{Name: "g", Indicators: []string{"nope"}})
		}},
		{"kafka without brokers", func(c *Config) {
			c.Kafka.Enabled = true
		}},
		{"telegram without token", func(c *Config) {
			c.Telegram.Enabled = true
		}},
		{"bad schedule time", func(c *Config) {
			c.Schedule.Enabled = true
			c.Schedule.At = "6am"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mut(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FORCE_REFRESH":    "TRUE",
		"DATA_DIR":         "/srv/econ",
		"HTTP_PORT":        "9090",
		"REDIS_ADDR":       "redis:6380",
		"KAFKA_BROKERS":    "k1:9092,k2:9092",
		"TELEGRAM_TOKEN":   "token",
		"TELEGRAM_CHAT_ID": "-100123",
	}
	c := Default()
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.True(t, c.Refresh.Force)
	assert.Equal(t, "/srv/econ", c.Storage.DataDir)
	assert.Equal(t, "/srv/econ/history.db", c.Storage.SQLitePath)
	assert.Equal(t, 9090, c.Server.Port)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Telegram.Enabled)
	assert.Equal(t, int64(-100123), c.Telegram.ChatID)
	assert.NoError(t, c.Validate())
}

func TestApplyEnvForceRefreshFalse(t *testing.T) {
	c := Default()
	c.Refresh.Force = true
	require.NoError(t, c.applyEnv(func(k string) string {
		if k == "FORCE_REFRESH" {
			return "false"
		}
		return ""
	}))
	assert.False(t, c.Refresh.Force)
}

func TestApplyEnvForceRefreshGarbageIsFalse(t *testing.T) {
	c := Default()
	c.Refresh.Force = true
	err := c.applyEnv(func(k string) string {
		if k == "FORCE_REFRESH" {
			return "yes"
		}
		return ""
	})
	require.NoError(t, err)
	assert.False(t, c.Refresh.Force)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], "FORCE_REFRESH")
}

func TestMaxAgeForOverride(t *testing.T) {
	c := Default()
	ind := IndicatorConfig{Source: "yahoo"}
	assert.Equal(t, 15*time.Minute, c.MaxAgeFor(ind))
	ind.MaxAge = time.Minute
	assert.Equal(t, time.Minute, c.MaxAgeFor(ind))
}
