package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Log         struct {
		Level     string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format    string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
			Topic     string        `yaml:"topic" default:"econdash.logs"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"5m"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RefreshTimeout  time.Duration `yaml:"refresh_timeout" default:"4m"`
		RefreshBurst    int           `yaml:"refresh_burst" default:"3" validate:"gte=1"`
		RefreshPerMin   float64       `yaml:"refresh_per_min" default:"2" validate:"gt=0"`
	} `yaml:"server"`
	Refresh struct {
		Force bool `yaml:"force"`
	} `yaml:"refresh"`
	Storage struct {
		DataDir      string        `yaml:"data_dir" default:"data" validate:"required"`
		History      string        `yaml:"history" default:"sqlite" validate:"oneof=sqlite clickhouse none"`
		SQLitePath   string        `yaml:"sqlite_path"`
		ReadCacheTTL time.Duration `yaml:"read_cache_ttl" default:"30s"`
	} `yaml:"storage"`
	HTTPClient struct {
		Timeout   time.Duration `yaml:"timeout" default:"30s"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; EconDash/1.0)"`
	} `yaml:"http_client"`
	Sources  Sources `yaml:"sources"`
	Schedule struct {
		Enabled  bool   `yaml:"enabled"`
		Day      string `yaml:"day" default:"saturday" validate:"oneof=monday tuesday wednesday thursday friday saturday sunday"`
		At       string `yaml:"at" default:"06:00"`
		Timezone string `yaml:"timezone" default:"Europe/Dublin"`
	} `yaml:"schedule"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"econdash"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"econdash.runs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"econdash"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		Token    string `yaml:"token"`
		ChatID   int64  `yaml:"chat_id"`
		NotifyOn string `yaml:"notify_on" default:"failures" validate:"oneof=always failures"`
	} `yaml:"telegram"`
	Report struct {
		Title  string `yaml:"title" default:"Economic Indicators"`
		Author string `yaml:"author" default:"IGEES DOT Economic Policy Unit"`
	} `yaml:"report"`
	Charts struct {
		CacheTTL time.Duration `yaml:"cache_ttl" default:"10m"`
		Width    int           `yaml:"width" default:"800" validate:"gte=200"`
		Height   int           `yaml:"height" default:"400" validate:"gte=150"`
		Points   int           `yaml:"points" default:"260" validate:"gte=2"`
		Groups   []ChartGroup  `yaml:"groups" validate:"dive"`
	} `yaml:"charts"`
	Indicators []IndicatorConfig `yaml:"indicators" validate:"dive"`

	// Warnings collects environment overrides that were ignored.
	Warnings []string `yaml:"-"`
}

// Sources holds endpoint and freshness settings per provider.
type Sources struct {
	CSO struct {
		BaseURL string        `yaml:"base_url" default:"https://ws.cso.ie/public/api.restful/PxStat.Data.Cube_API.ReadDataset"`
		MaxAge  time.Duration `yaml:"max_age" default:"6h"`
	} `yaml:"cso"`
	ECB struct {
		BaseURL      string        `yaml:"base_url" default:"https://data-api.ecb.europa.eu/service/data"`
		LookbackDays int           `yaml:"lookback_days" default:"400" validate:"gte=14"`
		MaxAge       time.Duration `yaml:"max_age" default:"1h"`
	} `yaml:"ecb"`
	Yahoo struct {
		BaseURL string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Range   string        `yaml:"range" default:"1y"`
		MaxAge  time.Duration `yaml:"max_age" default:"15m"`
	} `yaml:"yahoo"`
	Bonds struct {
		BaseURL string        `yaml:"base_url" default:"https://www.worldgovernmentbonds.com"`
		MaxAge  time.Duration `yaml:"max_age" default:"30m"`
	} `yaml:"bonds"`
	PMI struct {
		HistoryURL string        `yaml:"history_url" default:"https://tradingeconomics.com/ireland"`
		HubURL     string        `yaml:"hub_url" default:"https://aib.ie/fxcentre/resource-centre/aib-ireland-pmis"`
		MaxAge     time.Duration `yaml:"max_age" default:"6h"`
	} `yaml:"pmi"`
	Static struct {
		MaxAge time.Duration `yaml:"max_age" default:"24h"`
	} `yaml:"static"`
}

// IndicatorConfig describes one tracked series.
type IndicatorConfig struct {
	ID         string            `yaml:"id" validate:"required"`
	Label      string            `yaml:"label" validate:"required"`
	Unit       string            `yaml:"unit"`
	Source     string            `yaml:"source" validate:"required,oneof=cso ecb yahoo bonds pmi static"`
	Key        string            `yaml:"key"`
	Filters    map[string]string `yaml:"filters"`
	Scale      float64           `yaml:"scale" default:"1"`
	Frequency  string            `yaml:"frequency" default:"monthly" validate:"oneof=daily weekly monthly quarterly"`
	MaxAge     time.Duration     `yaml:"max_age"`
	Accumulate bool              `yaml:"accumulate"`
	Fallback   []PointConfig     `yaml:"fallback"`
	// FallbackFrequency dates undated fallback points; defaults to Frequency.
	FallbackFrequency string `yaml:"fallback_frequency" validate:"omitempty,oneof=daily weekly monthly quarterly"`
}

// PointConfig is a static observation. An empty Date is filled from the
// indicator frequency, counting back from the current period.
type PointConfig struct {
	Date  string  `yaml:"date"`
	Value float64 `yaml:"value"`
}

// ChartGroup renders several indicators on one chart.
type ChartGroup struct {
	Name       string   `yaml:"name" validate:"required"`
	Title      string   `yaml:"title"`
	Indicators []string `yaml:"indicators" validate:"min=1"`
	Monthly    bool     `yaml:"monthly"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Default returns a configuration built only from struct defaults and the
// built-in indicator catalog.
func Default() *Config {
	c := &Config{}
	_ = c.finish()
	return c
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// finish fills zero values from struct tags and derived settings.
func (c *Config) finish() error {
	if len(c.Indicators) == 0 {
		c.Indicators = DefaultIndicators()
	}
	if len(c.Charts.Groups) == 0 {
		c.Charts.Groups = DefaultChartGroups()
	}
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = c.Storage.DataDir + "/history.db"
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("FORCE_REFRESH"); v != "" {
		force, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("FORCE_REFRESH=%q is not a boolean, treating it as false", v))
		}
		c.Refresh.Force = force
	}
	if v := getenv("DATA_DIR"); v != "" {
		if c.Storage.SQLitePath == c.Storage.DataDir+"/history.db" {
			c.Storage.SQLitePath = v + "/history.db"
		}
		c.Storage.DataDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Redis.Enabled = true
		c.Redis.Host, c.Redis.Port = host, p
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
		c.Telegram.Enabled = true
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Indicators))
	for _, ind := range c.Indicators {
		if _, dup := seen[ind.ID]; dup {
			return fmt.Errorf("indicators: duplicate id '%s'", ind.ID)
		}
		seen[ind.ID] = struct{}{}
		if ind.Source == "static" && len(ind.Fallback) == 0 {
			return fmt.Errorf("indicators.%s: static source needs fallback points", ind.ID)
		}
		if ind.Source != "static" && ind.Key == "" {
			return fmt.Errorf("indicators.%s: key is required for source '%s'", ind.ID, ind.Source)
		}
	}
	for _, g := range c.Charts.Groups {
		for _, id := range g.Indicators {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("charts.groups.%s: unknown indicator '%s'", g.Name, id)
			}
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka to be enabled")
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	if c.Schedule.Enabled {
		if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
			return fmt.Errorf("schedule.at must be HH:MM, got '%s'", c.Schedule.At)
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	return nil
}

// MaxAgeFor returns the freshness window for an indicator, falling back to
// its source default.
func (c *Config) MaxAgeFor(ind IndicatorConfig) time.Duration {
	if ind.MaxAge > 0 {
		return ind.MaxAge
	}
	switch ind.Source {
	case "cso":
		return c.Sources.CSO.MaxAge
	case "ecb":
		return c.Sources.ECB.MaxAge
	case "yahoo":
		return c.Sources.Yahoo.MaxAge
	case "bonds":
		return c.Sources.Bonds.MaxAge
	case "pmi":
		return c.Sources.PMI.MaxAge
	default:
		return c.Sources.Static.MaxAge
	}
}
