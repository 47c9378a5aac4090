package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Venue    VenueConfig    `mapstructure:"venue"`
	Relayer  RelayerConfig  `mapstructure:"relayer"`
	Builder  BuilderConfig  `mapstructure:"builder"`
	Session  SessionConfig  `mapstructure:"session"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Rate     RateConfig     `mapstructure:"rate"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type ChainConfig struct {
	ID     int64  `mapstructure:"id"`
	RPCURL string `mapstructure:"rpc_url"`
}

type VenueConfig struct {
	ClobURL  string `mapstructure:"clob_url"`
	GammaURL string `mapstructure:"gamma_url"`
	DataURL  string `mapstructure:"data_url"`
	WSURL    string `mapstructure:"ws_url"`
}

type RelayerConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type BuilderConfig struct {
	ApiKey        string `mapstructure:"api_key"`
	ApiSecret     string `mapstructure:"api_secret"`
	ApiPassphrase string `mapstructure:"api_passphrase"`
}

type SessionConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

type TradingConfig struct {
	MinTradeUSDC float64 `mapstructure:"min_trade_usdc"`
	SlippageBps  int64   `mapstructure:"slippage_bps"`
	MinOrderSize float64 `mapstructure:"min_order_size"`
	MaxOrderSize float64 `mapstructure:"max_order_size"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. LEXGATE_VENUE_CLOB_URL
	viper.SetEnvPrefix("lexgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("chain.id", 137)
	viper.SetDefault("chain.rpc_url", "https://polygon-rpc.com")
	viper.SetDefault("venue.clob_url", "https://clob.polymarket.com")
	viper.SetDefault("venue.gamma_url", "https://gamma-api.polymarket.com")
	viper.SetDefault("venue.data_url", "https://data-api.polymarket.com")
	viper.SetDefault("venue.ws_url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	viper.SetDefault("relayer.base_url", "https://relayer-v2.polymarket.com")
	viper.SetDefault("session.ttl_hours", 168)
	viper.SetDefault("trading.min_trade_usdc", 1.0)
	viper.SetDefault("trading.slippage_bps", 100)
	viper.SetDefault("trading.min_order_size", 1.0)
	viper.SetDefault("trading.max_order_size", 10000.0)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("rate.requests_per_second", 10.0)
	viper.SetDefault("rate.burst", 20)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
