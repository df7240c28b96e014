package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"wagerengine/database"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr string

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Redis configuration
	RedisAddr       string // Empty disables the wager summary cache
	RedisPassword   string
	RedisDB         int
	RedisSummaryTTL time.Duration

	// Settlement configuration
	PlatformFeeBps int64 // Platform fee in basis points of the pot
	HouseAccountID int64 // Wallet that receives platform fees

	// Actors
	AdminUserIDs    []int64 // Users allowed to use the administrative surface
	FundingActorIDs []int64 // Payment integrations allowed to deposit and withdraw
	SystemActorID   int64   // Actor id recorded for sweeper and matcher transitions

	// Wager lifecycle configuration
	AutoStartWhenFull  bool
	OpenWagerTTL       time.Duration
	SweepInterval      time.Duration
	ConflictMaxRetries int
	TierStakeCaps      map[string]int64 // Maximum stake per tier, 0 means uncapped

	// Fraud signal configuration
	FraudWinStreakThreshold int
	FraudRematchWindow      time.Duration
	FraudRematchThreshold   int

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Environment
	Environment string // "development", "production" or "test"
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
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsAdmin reports whether the user may call administrative operations
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFundingActor reports whether the actor may move money in or out of a
// wallet. Admins always can.
func (c *Config) IsFundingActor(actorID int64) bool {
	return c.IsAdmin(actorID) || slices.Contains(c.FundingActorIDs, actorID)
}

// StakeCapForTier returns the stake cap for a tier, 0 when uncapped
func (c *Config) StakeCapForTier(tier string) int64 {
	if c.TierStakeCaps == nil {
		return 0
	}
	return c.TierStakeCaps[tier]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("nats_enabled", true)
	v.SetDefault("nats_servers", "nats://nats:4222")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_summary_ttl", 30*time.Second)
	v.SetDefault("platform_fee_bps", 500)
	v.SetDefault("house_account_id", 1)
	v.SetDefault("system_actor_id", 0)
	v.SetDefault("auto_start_when_full", false)
	v.SetDefault("open_wager_ttl", 24*time.Hour)
	v.SetDefault("sweep_interval", time.Minute)
	v.SetDefault("conflict_max_retries", 3)
	v.SetDefault("tier_stake_caps", "novice=5000,amateur=10000,intermediate=25000,advanced=50000,expert=100000,pro=0")
	v.SetDefault("fraud_win_streak_threshold", 8)
	v.SetDefault("fraud_rematch_window", time.Hour)
	v.SetDefault("fraud_rematch_threshold", 3)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_exporter_type", "none")
	v.SetDefault("otel_otlp_endpoint", "otel-collector:4317")
	v.SetDefault("otel_service_name", "wagerengine")
	v.SetDefault("otel_export_interval_millis", 15000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("environment", "development")
}

// load loads configuration from environment variables and an optional config file
func load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variables use the upper-case form of each key, e.g. PLATFORM_FEE_BPS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		DatabaseURL:              v.GetString("database_url"),
		DatabaseName:             v.GetString("database_name"),
		HTTPAddr:                 v.GetString("http_addr"),
		NATSEnabled:              v.GetBool("nats_enabled"),
		NATSServers:              v.GetString("nats_servers"),
		RedisAddr:                v.GetString("redis_addr"),
		RedisPassword:            v.GetString("redis_password"),
		RedisDB:                  v.GetInt("redis_db"),
		RedisSummaryTTL:          v.GetDuration("redis_summary_ttl"),
		PlatformFeeBps:           v.GetInt64("platform_fee_bps"),
		HouseAccountID:           v.GetInt64("house_account_id"),
		SystemActorID:            v.GetInt64("system_actor_id"),
		AutoStartWhenFull:        v.GetBool("auto_start_when_full"),
		OpenWagerTTL:             v.GetDuration("open_wager_ttl"),
		SweepInterval:            v.GetDuration("sweep_interval"),
		ConflictMaxRetries:       v.GetInt("conflict_max_retries"),
		FraudWinStreakThreshold:  v.GetInt("fraud_win_streak_threshold"),
		FraudRematchWindow:       v.GetDuration("fraud_rematch_window"),
		FraudRematchThreshold:    v.GetInt("fraud_rematch_threshold"),
		OTelEnabled:              v.GetBool("otel_enabled"),
		OTelExporterType:         v.GetString("otel_exporter_type"),
		OTelOTLPEndpoint:         v.GetString("otel_otlp_endpoint"),
		OTelServiceName:          v.GetString("otel_service_name"),
		OTelExportIntervalMillis: v.GetInt("otel_export_interval_millis"),
		LogLevel:                 v.GetString("log_level"),
		LogFormat:                v.GetString("log_format"),
		Environment:              v.GetString("environment"),
	}

	adminIDs, err := parseIDList(v.GetString("admin_user_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}
	config.AdminUserIDs = adminIDs

	fundingIDs, err := parseIDList(v.GetString("funding_actor_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid FUNDING_ACTOR_IDS: %w", err)
	}
	config.FundingActorIDs = fundingIDs

	caps, err := parseTierCaps(v.GetString("tier_stake_caps"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIER_STAKE_CAPS: %w", err)
	}
	config.TierStakeCaps = caps

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps >= 10000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be in [0, 10000), got %d", c.PlatformFeeBps)
	}
	if c.PlatformFeeBps > 0 && c.HouseAccountID <= 0 {
		return fmt.Errorf("HOUSE_ACCOUNT_ID is required when a platform fee is charged")
	}
	if c.ConflictMaxRetries < 0 {
		return fmt.Errorf("CONFLICT_MAX_RETRIES cannot be negative")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return nil
}

// parseIDList parses a comma-separated list of int64 ids
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", idStr, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseTierCaps parses "tier=cap" pairs separated by commas
func parseTierCaps(raw string) (map[string]int64, error) {
	caps := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected tier=cap, got %q", pair)
		}
		limit, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("invalid cap for tier %q", parts[0])
		}
		caps[strings.TrimSpace(parts[0])] = limit
	}
	return caps, nil
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
		Environment:             "test",
		AdminUserIDs:            []int64{999999, 999991}, // Default test admin IDs
		FundingActorIDs:         []int64{888888},
		SystemActorID:           0,
		PlatformFeeBps:          500,
		HouseAccountID:          1,
		OpenWagerTTL:            24 * time.Hour,
		SweepInterval:           time.Minute,
		ConflictMaxRetries:      3,
		TierStakeCaps:           map[string]int64{},
		FraudWinStreakThreshold: 8,
		FraudRematchWindow:      time.Hour,
		FraudRematchThreshold:   3,
		LogLevel:                "debug",
		LogFormat:               "text",
	}
}
