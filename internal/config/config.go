package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

type Database struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

type Twilio struct {
	AccountSID   string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken    string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	PhoneNumber  string `yaml:"phone_number" env:"TWILIO_PHONE_NUMBER"`
	UserNumber   string `yaml:"user_number" env:"USER_PHONE_NUMBER"`
	UseWhatsApp  bool   `yaml:"use_whatsapp" env:"USE_WHATSAPP"`
	WhatsAppFrom string `yaml:"whatsapp_from" env:"WHATSAPP_FROM"`
}

type OpenAI struct {
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model  string `yaml:"model" env:"OPENAI_MODEL"`
}

type Memory struct {
	APIKey  string `yaml:"api_key" env:"SUPERMEMORY_API_KEY"`
	BaseURL string `yaml:"base_url" env:"SUPERMEMORY_BASE_URL"`
}

type User struct {
	Timezone string `yaml:"timezone" env:"USER_TIMEZONE"`
}

type Scheduler struct {
	IntervalSeconds        int `yaml:"interval_seconds" env:"SCAN_INTERVAL_SECONDS"`
	DeliveryTimeoutSeconds int `yaml:"delivery_timeout_seconds" env:"DELIVERY_TIMEOUT_SECONDS"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Twilio    Twilio    `yaml:"twilio"`
	OpenAI    OpenAI    `yaml:"openai"`
	Memory    Memory    `yaml:"memory"`
	User      User      `yaml:"user"`
	Scheduler Scheduler `yaml:"scheduler"`
}

var placeholderRe = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}`)

func Load() (*Config, error) {
	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Replace environment variables in the YAML content
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		placeholder := "${" + pair[0] + "}"
		content = strings.ReplaceAll(content, placeholder, pair[1])
	}

	// Placeholders for unset variables read as empty values, so optional
	// integrations stay unconfigured instead of getting the literal text.
	content = placeholderRe.ReplaceAllString(content, "")

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Convert DB_PORT from string to int if it's an environment variable
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT value: %w", err)
		}
		cfg.Database.Port = port
	}

	if cfg.User.Timezone == "" {
		cfg.User.Timezone = "UTC"
	}

	return &cfg, nil
}
