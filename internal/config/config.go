package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Stock is one entry of the configured watch list.
type Stock struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

// DefaultStocks is used when the config file lists none.
var DefaultStocks = []Stock{
	{Name: "Bank Central Asia", Ticker: "BBCA.JK"},
	{Name: "Astra International", Ticker: "ASII.JK"},
	{Name: "Indofood Sukses Makmur", Ticker: "INDF.JK"},
	{Name: "Telkom Indonesia", Ticker: "TLKM.JK"},
	{Name: "Bank Mandiri", Ticker: "BMRI.JK"},
	{Name: "Bank Negara Indonesia", Ticker: "BBNI.JK"},
	{Name: "IHSG Composite", Ticker: "^JKSE"},
}

// Config holds all application configuration.
type Config struct {
	Stocks     []Stock `yaml:"stocks"`
	Prediction struct {
		SequenceLength int    `yaml:"sequence_length"`
		MaxDays        int    `yaml:"max_days"`
		DefaultDays    int    `yaml:"default_days"`
		DataPeriod     string `yaml:"data_period"`
	} `yaml:"prediction"`
	ModelDir   string `yaml:"model_dir"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo | http | mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Cache struct {
		Backend    string        `yaml:"backend"` // memory | redis
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"max_entries"`
	} `yaml:"cache"`
	Database struct {
		Driver string `yaml:"driver"` // sqlite | postgres | none
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// envOverrides are read from the process environment (and .env).
// Empty values leave the file config untouched.
type envOverrides struct {
	TelegramBotToken string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string        `envconfig:"TELEGRAM_CHAT_ID"`
	DataProvider     string        `envconfig:"DATA_PROVIDER"`
	DataBaseURL      string        `envconfig:"DATA_BASE_URL"`
	DataAPIKey       string        `envconfig:"DATA_API_KEY"`
	ModelDir         string        `envconfig:"MODEL_DIR"`
	CacheBackend     string        `envconfig:"CACHE_BACKEND"`
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL"`
	DBDriver         string        `envconfig:"DB_DRIVER"`
	DBDSN            string        `envconfig:"DB_DSN"`
	DailyCron        string        `envconfig:"CRON_DAILY"`
	MetricsAddr      string        `envconfig:"METRICS_ADDR"`
	MaxDays          int           `envconfig:"MAX_DAYS"`
	Proxy            string        `envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	setString(&c.Telegram.BotToken, env.TelegramBotToken)
	setString(&c.Telegram.ChatID, env.TelegramChatID)
	setString(&c.DataSource.Provider, env.DataProvider)
	setString(&c.DataSource.BaseURL, env.DataBaseURL)
	setString(&c.DataSource.APIKey, env.DataAPIKey)
	setString(&c.ModelDir, env.ModelDir)
	setString(&c.Cache.Backend, env.CacheBackend)
	setString(&c.Cache.Addr, env.RedisAddr)
	setString(&c.Cache.Password, env.RedisPassword)
	setString(&c.Database.Driver, env.DBDriver)
	setString(&c.Database.DSN, env.DBDSN)
	setString(&c.Schedule.DailyCron, env.DailyCron)
	setString(&c.Metrics.Addr, env.MetricsAddr)
	setString(&c.Proxy, env.Proxy)
	if env.CacheTTL > 0 {
		c.Cache.TTL = env.CacheTTL
	}
	if env.MaxDays > 0 {
		c.Prediction.MaxDays = env.MaxDays
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Stocks) == 0 {
		c.Stocks = append([]Stock(nil), DefaultStocks...)
	}
	if c.Prediction.SequenceLength == 0 {
		c.Prediction.SequenceLength = 60
	}
	if c.Prediction.MaxDays == 0 {
		c.Prediction.MaxDays = 30
	}
	if c.Prediction.DefaultDays == 0 {
		c.Prediction.DefaultDays = 7
	}
	if c.Prediction.DataPeriod == "" {
		c.Prediction.DataPeriod = "2y"
	}
	if c.ModelDir == "" {
		c.ModelDir = "models"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Backend == "redis" && c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 64
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "data/forecasts.db"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 18 * * 1-5"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Tickers returns the configured tickers in list order.
func (c *Config) Tickers() []string {
	out := make([]string, len(c.Stocks))
	for i, s := range c.Stocks {
		out[i] = s.Ticker
	}
	return out
}

// Validate checks that the loaded config is usable. Telegram is optional;
// without it the forecaster runs in CLI / log-only mode.
func (c *Config) Validate() error {
	p := c.Prediction
	if p.SequenceLength < 1 {
		return fmt.Errorf("prediction.sequence_length must be positive")
	}
	if p.MaxDays < 1 {
		return fmt.Errorf("prediction.max_days must be positive")
	}
	if p.DefaultDays < 1 || p.DefaultDays > p.MaxDays {
		return fmt.Errorf("prediction.default_days must be in [1, %d]", p.MaxDays)
	}
	for i, s := range c.Stocks {
		if strings.TrimSpace(s.Ticker) == "" {
			return fmt.Errorf("stocks[%d].ticker is required", i)
		}
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "http":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider http")
		}
	default:
		return fmt.Errorf("data_source.provider %q not supported", c.DataSource.Provider)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend %q not supported", c.Cache.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	case "none":
	default:
		return fmt.Errorf("database.driver %q not supported", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
