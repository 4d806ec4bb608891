package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the full runtime configuration of the service
type Config struct {
	Environment string              `yaml:"environment"`
	LogLevel    string              `yaml:"log_level"`
	Server      ServerSection       `yaml:"server"`
	Sessions    SessionsSection     `yaml:"sessions"`
	Debug       DebugSection        `yaml:"debug"`
	Gateway     GatewaySection      `yaml:"gateway"`
	Notify      NotificationSection `yaml:"notifications"`
	Twilio      TwilioSection       `yaml:"-"`
	Database    DatabaseSection     `yaml:"-"`
}

type ServerSection struct {
	Port string `yaml:"port"`
}

type SessionsSection struct {
	Timeout       time.Duration `yaml:"timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Store         string        `yaml:"store"`
}

type DebugSection struct {
	Token string `yaml:"token"`
}

type GatewaySection struct {
	Secret string `yaml:"secret"`
}

type NotificationSection struct {
	SMSFollowUp bool `yaml:"sms_followup"`
}

// TwilioSection is only read from the environment
type TwilioSection struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// DatabaseSection is only read from the environment
type DatabaseSection struct {
	User                   string
	Password               string
	Name                   string
	Host                   string
	Port                   string
	InstanceConnectionName string
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Environment: "production",
		LogLevel:    "info",
		Server:      ServerSection{Port: "8080"},
		Sessions: SessionsSection{
			Timeout:       5 * time.Minute,
			SweepInterval: 60 * time.Second,
			Store:         StoreMemory,
		},
		Notify: NotificationSection{SMSFollowUp: true},
		Database: DatabaseSection{
			User: "postgres",
			Name: "telehealth",
			Host: "localhost",
			Port: "5432",
		},
	}
}

// Load builds the configuration from .env files, an optional YAML file named
// by USSD_CONFIG, and environment variables, in that order of precedence
// (later wins).
func Load() (Config, error) {
	loadDotEnv()

	cfg := Default()
	if path := os.Getenv("USSD_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv loads .env for local development; Cloud Run injects env directly
func loadDotEnv() {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("environments/.env.development")
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Server.Port, "PORT")
	setString(&c.Sessions.Store, "SESSION_STORE")
	setString(&c.Debug.Token, "DEBUG_TOKEN")
	setString(&c.Gateway.Secret, "USSD_GATEWAY_SECRET")

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		c.Sessions.Store = StoreMemory
	}

	if err := setDuration(&c.Sessions.Timeout, "USSD_SESSION_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Sessions.SweepInterval, "USSD_SWEEP_INTERVAL"); err != nil {
		return err
	}
	if v := os.Getenv("SMS_FOLLOWUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SMS_FOLLOWUP %q: %w", v, err)
		}
		c.Notify.SMSFollowUp = b
	}

	setString(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Twilio.PhoneNumber, "TWILIO_PHONE_NUMBER")

	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASS")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.InstanceConnectionName, "INSTANCE_CONNECTION_NAME")
	return nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Sessions.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("sessions.timeout must be positive, got %s", c.Sessions.Timeout))
	}
	if c.Sessions.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sessions.sweep_interval must be positive, got %s", c.Sessions.SweepInterval))
	}
	switch c.Sessions.Store {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Sessions.Store))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in local development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
