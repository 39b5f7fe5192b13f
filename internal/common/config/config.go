package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Email     EmailConfig     `mapstructure:"email"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ReasoningConfig holds settings for the external reasoning service.
type ReasoningConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"`     // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"` // transport retries per turn
}

// Approval precedence modes.
const (
	PrecedenceModel      = "model"
	PrecedenceClassifier = "classifier"
)

// WorkflowConfig holds the conversation-loop and dispatch behavior knobs.
type WorkflowConfig struct {
	// MaxTurns bounds the conversation loop; deployments run 5 or 6.
	MaxTurns int `mapstructure:"max_turns"`
	// ApprovalPrecedence is "model" (classifier is advisory) or
	// "classifier" (legacy strict mode: classifier overrides the model).
	ApprovalPrecedence string `mapstructure:"approval_precedence"`
	// LockTTL is the per-ticket redis lock TTL in milliseconds.
	LockTTL int `mapstructure:"lock_ttl"`
	// SweepInterval is the pause between backlog sweeps in milliseconds.
	SweepInterval int `mapstructure:"sweep_interval"`
}

// ApprovalConfig holds the token secret and link base URL. The default
// secret is insecure and must be overridden outside development.
type ApprovalConfig struct {
	Secret  string `mapstructure:"secret"`
	BaseURL string `mapstructure:"base_url"`
}

// EmailConfig holds outbound mail settings. Provider is "smtp" or "ses".
type EmailConfig struct {
	Provider  string `mapstructure:"provider"`
	FromEmail string `mapstructure:"from_email"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// AlertsConfig controls the optional SNS alert published when a ticket
// enters manager approval.
type AlertsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TopicARN string `mapstructure:"topic_arn"`
	Region   string `mapstructure:"region"`
}

type DocumentsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	OutputDir string `mapstructure:"output_dir"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
