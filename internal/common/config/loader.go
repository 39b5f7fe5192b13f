package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// insecureApprovalSecret is the development fallback for the approval token
// secret. It MUST be overridden via APPROVAL_SECRET outside development.
const insecureApprovalSecret = "ey_approval_secret"

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)
		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ticket-resolver"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Reasoning.MaxTokens == 0 {
		cfg.Reasoning.MaxTokens = 500
	}
	if cfg.Reasoning.Temperature == 0 {
		cfg.Reasoning.Temperature = 0.2
	}
	if cfg.Reasoning.Timeout == 0 {
		cfg.Reasoning.Timeout = 30000
	}
	if cfg.Workflow.MaxTurns == 0 {
		cfg.Workflow.MaxTurns = 6
	}
	if cfg.Workflow.ApprovalPrecedence == "" {
		cfg.Workflow.ApprovalPrecedence = PrecedenceModel
	}
	if cfg.Workflow.LockTTL == 0 {
		cfg.Workflow.LockTTL = 120000
	}
	if cfg.Workflow.SweepInterval == 0 {
		cfg.Workflow.SweepInterval = 60000
	}
	if cfg.Approval.Secret == "" {
		cfg.Approval.Secret = insecureApprovalSecret
	}
	if cfg.Approval.BaseURL == "" {
		cfg.Approval.BaseURL = "http://localhost:5000"
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "smtp"
	}
	if cfg.Documents.OutputDir == "" {
		cfg.Documents.OutputDir = "generated_documents"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9092
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Direct override if config values are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Reasoning.APIKey == "" {
		if val := os.Getenv("REASONING_API_KEY"); val != "" {
			cfg.Reasoning.APIKey = val
		}
	}
	if cfg.Reasoning.BaseURL == "" {
		if val := os.Getenv("REASONING_BASE_URL"); val != "" {
			cfg.Reasoning.BaseURL = val
		}
	}
	if cfg.Approval.Secret == insecureApprovalSecret {
		if val := os.Getenv("APPROVAL_SECRET"); val != "" {
			cfg.Approval.Secret = val
		}
	}
	if val := os.Getenv("APP_BASE_URL"); val != "" {
		cfg.Approval.BaseURL = val
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Email.SMTP.Password == "" {
		if val := os.Getenv("SMTP_PASSWORD"); val != "" {
			cfg.Email.SMTP.Password = val
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Workflow.MaxTurns < 1 {
		return fmt.Errorf("workflow.max_turns must be >= 1, got %d", cfg.Workflow.MaxTurns)
	}
	switch cfg.Workflow.ApprovalPrecedence {
	case PrecedenceModel, PrecedenceClassifier:
	default:
		return fmt.Errorf("workflow.approval_precedence must be \"model\" or \"classifier\", got %q", cfg.Workflow.ApprovalPrecedence)
	}
	switch cfg.Email.Provider {
	case "smtp", "ses":
	default:
		return fmt.Errorf("email.provider must be \"smtp\" or \"ses\", got %q", cfg.Email.Provider)
	}
	if cfg.Reasoning.BaseURL == "" {
		return fmt.Errorf("reasoning.base_url is required")
	}
	return nil
}
