package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`
	Venue  VenueConfig  `mapstructure:"venue"`

	FillSync       FillSyncConfig       `mapstructure:"fill_sync"`
	FillStream     FillStreamConfig     `mapstructure:"fill_stream"`
	EquitySnapshot EquitySnapshotConfig `mapstructure:"equity_snapshot"`
	Leaderboard    LeaderboardConfig    `mapstructure:"leaderboard"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	FillSync string `mapstructure:"fill_sync"`
	Equity   string `mapstructure:"equity"`
}

type VenueConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	WSURL   string        `mapstructure:"ws_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FillSyncConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Accounts     []string `mapstructure:"accounts"`
	PageLimit    int      `mapstructure:"page_limit"`
	MaxPages     int      `mapstructure:"max_pages"`
	LookbackDays int      `mapstructure:"lookback_days"`
}

type FillStreamConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type EquitySnapshotConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LeaderboardConfig struct {
	DefaultMetric string `mapstructure:"default_metric"`
	CapitalCap    string `mapstructure:"capital_cap"`
	MaxAccounts   int    `mapstructure:"max_accounts"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.fill_sync", "@every 5m")
	v.SetDefault("cron.equity", "@every 1h")
	v.SetDefault("venue.base_url", "")
	v.SetDefault("venue.ws_url", "")
	v.SetDefault("venue.timeout", "15s")
	v.SetDefault("fill_sync.enabled", true)
	v.SetDefault("fill_sync.page_limit", 500)
	v.SetDefault("fill_sync.max_pages", 50)
	v.SetDefault("fill_sync.lookback_days", 90)
	v.SetDefault("fill_stream.enabled", false)
	v.SetDefault("equity_snapshot.enabled", true)
	v.SetDefault("leaderboard.default_metric", "return")
	v.SetDefault("leaderboard.capital_cap", "")
	v.SetDefault("leaderboard.max_accounts", 200)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
