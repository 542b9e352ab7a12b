package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server
	AppPort string `yaml:"APP_PORT"`
	AppURL  string `yaml:"APP_URL"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// OpenAI configuration
	OpenAIAPIKey string `yaml:"OPENAI_API_KEY"`
	OpenAIModel  string `yaml:"OPENAI_MODEL"`

	// Housekeeping
	SessionTTLHours int    `yaml:"SESSION_TTL_HOURS"`
	LogLevel        string `yaml:"LOG_LEVEL"`
}

// LoadConfig reads config.yaml when present, then lets environment
// variables (optionally from a .env file) override it. Required keys are
// validated here so a misconfigured process dies at startup instead of
// degrading at the first request.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if raw, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config.yaml: %w", err)
		}
	}

	// .env is optional; plain environment variables work the same way.
	_ = godotenv.Load()

	overrideString(&cfg.AppPort, "APP_PORT")
	overrideString(&cfg.AppURL, "APP_URL")
	overrideString(&cfg.DBUser, "DB_USER")
	overrideString(&cfg.DBName, "DB_NAME")
	overrideString(&cfg.DBPassword, "DB_PASSWORD")
	overrideString(&cfg.DBPort, "DB_PORT")
	overrideString(&cfg.DBHost, "DB_HOST")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.SMTPHost, "SMTP_HOST")
	overrideString(&cfg.SMTPPort, "SMTP_PORT")
	overrideString(&cfg.SMTPSenderName, "SMTP_SENDER_NAME")
	overrideString(&cfg.SMTPAuthEmail, "SMTP_AUTH_EMAIL")
	overrideString(&cfg.SMTPAuthPassword, "SMTP_AUTH_PASSWORD")
	overrideString(&cfg.AWSS3Bucket, "AWS_S3_BUCKET")
	overrideString(&cfg.AWSS3Region, "AWS_S3_REGION")
	overrideString(&cfg.AWSAccessKey, "AWS_ACCESS_KEY")
	overrideString(&cfg.AWSSecretKey, "AWS_SECRET_KEY")
	overrideString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	overrideString(&cfg.OpenAIModel, "OPENAI_MODEL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL_HOURS must be an integer: %w", err)
		}
		cfg.SessionTTLHours = n
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.DBHost == "" {
		c.DBHost = "localhost"
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 24
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	required := map[string]string{
		"DB_USER":        c.DBUser,
		"DB_NAME":        c.DBName,
		"DB_PASSWORD":    c.DBPassword,
		"JWT_SECRET":     c.JWTSecret,
		"AWS_S3_BUCKET":  c.AWSS3Bucket,
		"AWS_S3_REGION":  c.AWSS3Region,
		"AWS_ACCESS_KEY": c.AWSAccessKey,
		"AWS_SECRET_KEY": c.AWSSecretKey,
		"OPENAI_API_KEY": c.OpenAIAPIKey,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("missing required configuration: %s", key)
		}
	}
	return nil
}
