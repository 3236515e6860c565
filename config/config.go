package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Gate     GateConfig     `mapstructure:"gate"`
	Provider ProviderConfig `mapstructure:"provider"`
	Staking  StakingConfig  `mapstructure:"staking"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// GateConfig controls the wallet connection/eligibility gate.
type GateConfig struct {
	RequiredNetworkID string        `mapstructure:"required_network_id"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	SwitchTimeout     time.Duration `mapstructure:"switch_timeout"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
}

// ProviderConfig selects and tunes the wallet provider binding.
// Mode "simulated" runs the built-in provider double; latency models the
// round trip to an external wallet extension.
type ProviderConfig struct {
	Mode      string        `mapstructure:"mode"`
	Latency   time.Duration `mapstructure:"latency"`
	NetworkID string        `mapstructure:"network_id"` // network the simulated wallet starts on
}

type StakingConfig struct {
	Amount       int64 `mapstructure:"amount"`        // tokens locked per stake
	FaucetAmount int64 `mapstructure:"faucet_amount"` // tokens granted per faucet request
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SRG_ (Staked Report Gateway).
// Nested keys use underscore: SRG_DATABASE_HOST, SRG_GATE_REQUIRED_NETWORK_ID, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "report_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "staked-report-gateway")
	v.SetDefault("gate.required_network_id", "verity-mainnet")
	v.SetDefault("gate.connect_timeout", "15s")
	v.SetDefault("gate.switch_timeout", "15s")
	v.SetDefault("gate.session_ttl", "24h")
	v.SetDefault("provider.mode", "simulated")
	v.SetDefault("provider.latency", "1500ms")
	v.SetDefault("provider.network_id", "verity-mainnet")
	v.SetDefault("staking.amount", 100)
	v.SetDefault("staking.faucet_amount", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SRG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SRG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
