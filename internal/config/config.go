package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Business BusinessConfig `mapstructure:"business"`
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`

	Secrets Secrets `mapstructure:"-"`
}

type BusinessConfig struct {
	Name            string `mapstructure:"name" validate:"required"`
	FeedbackBaseURL string `mapstructure:"feedback_base_url" validate:"required,url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SourceConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	BusinessID string        `mapstructure:"business_id" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required"`
	SenderEmail string `mapstructure:"sender_email" validate:"required,email"`
	SenderName  string `mapstructure:"sender_name"`
}

type DispatchConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts" validate:"min=1"`
	BatchSize         int           `mapstructure:"batch_size" validate:"min=1"`
	InterBatchDelay   time.Duration `mapstructure:"inter_batch_delay"`
	FollowUpDays      int           `mapstructure:"follow_up_days" validate:"min=1"`
	StaleSendingAfter time.Duration `mapstructure:"stale_sending_after"`
}

type AlertConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	OperatorEmail string `mapstructure:"operator_email" validate:"omitempty,email"`
}

type ScheduleConfig struct {
	// Cron expressions, robfig/cron standard 5-field format.
	SameDay  []string `mapstructure:"same_day"`
	FollowUp string   `mapstructure:"follow_up"`
	Timezone string   `mapstructure:"timezone"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Secrets are never read from the config file; they come from the
// environment only.
type Secrets struct {
	SourceAPIKey string `envconfig:"SOURCE_API_KEY"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults() {
	viper.SetDefault("source.timeout", 30*time.Second)
	viper.SetDefault("source.cache_ttl", 10*time.Minute)
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("dispatch.max_attempts", 3)
	viper.SetDefault("dispatch.batch_size", 50)
	viper.SetDefault("dispatch.inter_batch_delay", 2*time.Second)
	viper.SetDefault("dispatch.follow_up_days", 7)
	viper.SetDefault("dispatch.stale_sending_after", 15*time.Minute)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("schedule.same_day", []string{"0 12 * * *", "0 19 * * *"})
	viper.SetDefault("schedule.follow_up", "0 8 * * *")
	viper.SetDefault("schedule.timezone", "UTC")
	viper.SetDefault("server.port", 8081)
}

// LoadConfig reads config.yaml, overlays environment secrets and
// validates the result. Components receive sub-structs at construction;
// nothing reads viper after this returns.
func LoadConfig(paths ...string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("notifier", &config.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets from environment: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
