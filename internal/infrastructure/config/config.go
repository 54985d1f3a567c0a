package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string               `mapstructure:"environment"`
	LogLevel       string               `mapstructure:"log_level"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Blockchain     BlockchainConfig     `mapstructure:"blockchain"`
	Earning        EarningConfig        `mapstructure:"earning"`
	Email          EmailConfig          `mapstructure:"email"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// BlockchainConfig describes the fixed set of networks the verifier
// queries. Each network carries its own scan endpoint, token contract and
// platform collection address.
type BlockchainConfig struct {
	Networks       map[string]NetworkConfig `mapstructure:"networks"`
	LookupTimeout  int                      `mapstructure:"lookup_timeout"`   // seconds, per network
	RequestsPerSec float64                  `mapstructure:"requests_per_sec"` // per-network rate limit
}

type NetworkConfig struct {
	Name              string `mapstructure:"name"`
	APIURL            string `mapstructure:"api_url"`
	APIKey            string `mapstructure:"api_key"`
	TokenContract     string `mapstructure:"token_contract"`
	TokenDecimals     int    `mapstructure:"token_decimals"`
	CollectionAddress string `mapstructure:"collection_address"`
}

// EarningConfig controls the daily earning session machine
type EarningConfig struct {
	DurationSeconds int `mapstructure:"duration_seconds"` // active window length
	CycleHours      int `mapstructure:"cycle_hours"`      // one session per cycle
}

type EmailConfig struct {
	Provider  string `mapstructure:"provider"` // "sendgrid" or "noop"
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// ReconciliationConfig controls the periodic drift sweep. The sweep is an
// audit only: reconciliation on the write paths is what keeps wallets
// correct, so disabling it is safe.
type ReconciliationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"` // cron expression
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "nova")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", 3600)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	viper.SetDefault("jwt.issuer", "nova")

	viper.SetDefault("blockchain.lookup_timeout", 10)
	viper.SetDefault("blockchain.requests_per_sec", 4.0)
	viper.SetDefault("blockchain.networks.bep20.name", "BEP20")
	viper.SetDefault("blockchain.networks.bep20.api_url", "https://api.bscscan.com/api")
	viper.SetDefault("blockchain.networks.bep20.token_decimals", 18)
	viper.SetDefault("blockchain.networks.erc20.name", "ERC20")
	viper.SetDefault("blockchain.networks.erc20.api_url", "https://api.etherscan.io/api")
	viper.SetDefault("blockchain.networks.erc20.token_decimals", 6)
	viper.SetDefault("blockchain.networks.polygon.name", "POLYGON")
	viper.SetDefault("blockchain.networks.polygon.api_url", "https://api.polygonscan.com/api")
	viper.SetDefault("blockchain.networks.polygon.token_decimals", 6)
	viper.SetDefault("blockchain.networks.trc20.name", "TRC20")
	viper.SetDefault("blockchain.networks.trc20.api_url", "https://apilist.tronscanapi.com/api/transaction-info")
	viper.SetDefault("blockchain.networks.trc20.token_decimals", 6)

	viper.SetDefault("earning.duration_seconds", 3600)
	viper.SetDefault("earning.cycle_hours", 24)

	viper.SetDefault("email.provider", "noop")

	viper.SetDefault("reconciliation.enabled", true)
	viper.SetDefault("reconciliation.schedule", "0 * * * *")

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.collector_url", "localhost:4317")
	viper.SetDefault("tracing.sample_rate", 1.0)
}

func validate(cfg *Config) error {
	if cfg.Environment != "development" && cfg.Environment != "test" {
		if cfg.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required outside development")
		}
	}

	if cfg.Earning.DurationSeconds <= 0 {
		return fmt.Errorf("earning.duration_seconds must be positive")
	}

	if cfg.Earning.CycleHours*3600 < cfg.Earning.DurationSeconds {
		return fmt.Errorf("earning cycle must be at least as long as the session duration")
	}

	for key, network := range cfg.Blockchain.Networks {
		if network.APIURL == "" {
			return fmt.Errorf("blockchain.networks.%s.api_url is required", key)
		}
	}

	return nil
}
