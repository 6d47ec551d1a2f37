package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	MongoDB     MongoDBConfig     `mapstructure:"mongodb"`
	Storage     StorageConfig     `mapstructure:"storage"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
	Policy      PolicyConfig      `mapstructure:"policy"`
	Transaction TransactionConfig `mapstructure:"transaction"`
	Notifier    NotifierConfig    `mapstructure:"notifier"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the ledger store
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	Issuer    string        `mapstructure:"issuer"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// PolicyConfig holds the ledger's business constants
type PolicyConfig struct {
	VoteThreshold        int64  `mapstructure:"vote_threshold"`
	VotingPeriodDays     int    `mapstructure:"voting_period_days"`
	FundingPeriodDays    int    `mapstructure:"funding_period_days"`
	Currency             string `mapstructure:"currency"`
	RejectDuplicateTxRef bool   `mapstructure:"reject_duplicate_tx_ref"`
}

// TransactionConfig holds the retry budget for transient conflicts
type TransactionConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	Multiplier  float64       `mapstructure:"multiplier"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

// NotifierConfig holds notification dispatcher configuration
type NotifierConfig struct {
	Mode          string        `mapstructure:"mode"`
	WebhookURL    string        `mapstructure:"webhook_url"`
	SigningSecret string        `mapstructure:"signing_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Inbox         bool          `mapstructure:"inbox"`
}

// SchedulerConfig holds background sweep configuration
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	PromotionInterval time.Duration `mapstructure:"promotion_interval"`
}

// Load loads configuration from config.yaml and environment variables.
// SERVER_PORT overrides server.port, POLICY_VOTE_THRESHOLD overrides policy.vote_threshold, and so on.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration. Every key needs a default so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_hosts", []string{"http://localhost:3000"})

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("mongodb.database", "crowdfund")
	v.SetDefault("mongodb.timeout", 10*time.Second)

	v.SetDefault("storage.driver", StorageMongoDB)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "crowdfund-backend")
	v.SetDefault("jwt.expires_in", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/crowdfund.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("policy.vote_threshold", 100)
	v.SetDefault("policy.voting_period_days", 30)
	v.SetDefault("policy.funding_period_days", 90)
	v.SetDefault("policy.currency", "USD")
	v.SetDefault("policy.reject_duplicate_tx_ref", false)

	v.SetDefault("transaction.max_attempts", 3)
	v.SetDefault("transaction.base_backoff", 100*time.Millisecond)
	v.SetDefault("transaction.multiplier", 2.0)
	v.SetDefault("transaction.max_backoff", time.Second)

	v.SetDefault("notifier.mode", "log")
	v.SetDefault("notifier.webhook_url", "")
	v.SetDefault("notifier.signing_secret", "")
	v.SetDefault("notifier.timeout", 10*time.Second)
	v.SetDefault("notifier.inbox", true)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.promotion_interval", 5*time.Minute)
}

// Validate rejects configurations the ledger cannot run with
func (c *Config) Validate() error {
	var problems []string
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Storage.Driver {
	case StorageMongoDB:
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
			problems = append(problems, "mongodb.uri and mongodb.database are required for the mongodb driver")
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of mongodb, memory", c.Storage.Driver))
	}
	if c.Policy.VoteThreshold <= 0 {
		problems = append(problems, "policy.vote_threshold must be positive")
	}
	if c.Policy.VotingPeriodDays <= 0 || c.Policy.FundingPeriodDays <= 0 {
		problems = append(problems, "policy voting and funding periods must be positive")
	}
	if c.Transaction.MaxAttempts < 1 {
		problems = append(problems, "transaction.max_attempts must be at least 1")
	}
	if c.Transaction.BaseBackoff <= 0 || c.Transaction.MaxBackoff <= 0 || c.Transaction.Multiplier < 1 {
		problems = append(problems, "transaction backoff must be positive with a multiplier of at least 1")
	}
	if c.Notifier.Mode == "webhook" && (c.Notifier.WebhookURL == "" || c.Notifier.SigningSecret == "") {
		problems = append(problems, "notifier.webhook_url and notifier.signing_secret are required in webhook mode")
	}
	if c.Scheduler.Enabled && c.Scheduler.PromotionInterval <= 0 {
		problems = append(problems, "scheduler.promotion_interval must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// VotingPeriod is the voting window length
func (p PolicyConfig) VotingPeriod() time.Duration {
	return time.Duration(p.VotingPeriodDays) * 24 * time.Hour
}

// FundingPeriod is the funding window length
func (p PolicyConfig) FundingPeriod() time.Duration {
	return time.Duration(p.FundingPeriodDays) * 24 * time.Hour
}
