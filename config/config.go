package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"oddsmatch/database"

	"github.com/spf13/viper"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Betting configuration
	Moderator                  string           `mapstructure:"moderator"`
	BettingThresholdFactor     int32            `mapstructure:"betting_threshold_factor"`
	ResolveDelaySec            uint32           `mapstructure:"resolve_delay_sec"`
	DefaultAutoResolveDelaySec uint32           `mapstructure:"default_auto_resolve_delay_sec"`
	MinBetStake                int64            `mapstructure:"min_bet_stake"`
	GenesisAccounts            []GenesisAccount `mapstructure:"genesis_accounts"`

	// InitialBalances is GenesisAccounts keyed by account name. Account names
	// are case sensitive, so they are read as list values and never as map
	// keys, which viper lowercases.
	InitialBalances map[string]int64 `mapstructure:"-"`

	// Storage configuration
	StoreBackend string `mapstructure:"store_backend"`
	DatabaseURL  string `mapstructure:"database_url"`
	DatabaseName string `mapstructure:"database_name"`

	// NATS configuration
	NATSServers    string `mapstructure:"nats_servers"` // comma-separated
	NATSEnabled    bool   `mapstructure:"nats_enabled"`
	CommandSubject string `mapstructure:"command_subject"`

	// Admin HTTP
	AdminListenAddr string `mapstructure:"admin_listen_addr"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Environment
	Environment string `mapstructure:"environment"` // "development", "production" or "test"
}

// GenesisAccount is an account credited once when the engine first starts
type GenesisAccount struct {
	Name    string `mapstructure:"name"`
	Balance int64  `mapstructure:"balance"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load(os.Getenv("ODDSMATCH_CONFIG"))
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ODDSMATCH_ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads configuration from an optional file and ODDSMATCH_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ODDSMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	balances, err := genesisBalances(cfg.GenesisAccounts)
	if err != nil {
		return nil, err
	}
	cfg.InitialBalances = balances

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func genesisBalances(accounts []GenesisAccount) (map[string]int64, error) {
	balances := make(map[string]int64, len(accounts))
	for _, account := range accounts {
		if account.Name == "" {
			return nil, fmt.Errorf("genesis account name is required")
		}
		if _, ok := balances[account.Name]; ok {
			return nil, fmt.Errorf("genesis account %s is listed twice", account.Name)
		}
		balances[account.Name] = account.Balance
	}
	return balances, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("moderator", "")
	v.SetDefault("betting_threshold_factor", 1000)
	v.SetDefault("resolve_delay_sec", 86400)
	v.SetDefault("default_auto_resolve_delay_sec", 7*86400)
	v.SetDefault("min_bet_stake", 1)

	v.SetDefault("store_backend", StoreMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("database_name", "")

	v.SetDefault("nats_servers", "nats://nats:4222")
	v.SetDefault("nats_enabled", false)
	v.SetDefault("command_subject", "oddsmatch.commands")

	v.SetDefault("admin_listen_addr", ":8080")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("environment", "development")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Environment != "test" && c.Moderator == "" {
		return fmt.Errorf("moderator is required")
	}
	if c.BettingThresholdFactor <= 0 || c.BettingThresholdFactor%2 != 0 {
		return fmt.Errorf("betting_threshold_factor must be a positive even number")
	}
	if c.MinBetStake < 1 {
		return fmt.Errorf("min_bet_stake must be at least 1")
	}
	for name, balance := range c.InitialBalances {
		if balance < 0 {
			return fmt.Errorf("initial balance for %s must not be negative", name)
		}
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("store_backend must be one of: memory, postgres")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: json, text")
	}

	return nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// ResolveDelay returns the delay between the first results and settlement
func (c *Config) ResolveDelay() time.Duration {
	return time.Duration(c.ResolveDelaySec) * time.Second
}

// IsModerator reports whether account may issue game commands
func (c *Config) IsModerator(account string) bool {
	return account != "" && account == c.Moderator
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Moderator:                  "moderator",
		BettingThresholdFactor:     1000,
		ResolveDelaySec:            3600,
		DefaultAutoResolveDelaySec: 86400,
		MinBetStake:                1,
		InitialBalances:            map[string]int64{},
		StoreBackend:               StoreMemory,
		LogLevel:                   "info",
		LogFormat:                  "text",
		Environment:                "test",
	}
}
