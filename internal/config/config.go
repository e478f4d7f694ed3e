package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	Env     string `yaml:"env"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TokenConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
	VerifyTTL  string `yaml:"verify_ttl"`
	ResetTTL   string `yaml:"reset_ttl"`
}

type SessionConfig struct {
	TTL          string `yaml:"ttl"`
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	BaseURL  string `yaml:"base_url"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Tokens   TokenConfig    `yaml:"tokens"`
	Session  SessionConfig  `yaml:"session"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Casbin   CasbinConfig   `yaml:"casbin"`
}

type Config struct {
	Port          string
	GinMode       string
	Env           string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TokenSecret string
	TokenIssuer string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	VerifyTTL   time.Duration
	ResetTTL    time.Duration

	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	BaseURL      string

	CasbinModelPath string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and applies environment overrides for the
// secrets that should not live in the file.
func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	accTTL, err := time.ParseDuration(configFile.Tokens.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid access token TTL: %w", err)
	}

	refTTL, err := time.ParseDuration(configFile.Tokens.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token TTL: %w", err)
	}

	verTTL, err := time.ParseDuration(configFile.Tokens.VerifyTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid verification token TTL: %w", err)
	}

	rstTTL, err := time.ParseDuration(configFile.Tokens.ResetTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid reset token TTL: %w", err)
	}

	sesTTL, err := time.ParseDuration(configFile.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}

	cookieName := configFile.Session.CookieName
	if cookieName == "" {
		cookieName = "cart_session"
	}

	return &Config{
		Port:          fmt.Sprintf("%d", configFile.App.Port),
		GinMode:       configFile.App.GinMode,
		Env:           env("APP_ENV", configFile.App.Env),
		DSN:           env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:     env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:       configFile.Redis.DB,

		TokenSecret: env("TOKEN_SECRET", configFile.Tokens.Secret),
		TokenIssuer: configFile.Tokens.Issuer,
		AccessTTL:   accTTL,
		RefreshTTL:  refTTL,
		VerifyTTL:   verTTL,
		ResetTTL:    rstTTL,

		SessionTTL:          sesTTL,
		SessionCookieName:   cookieName,
		SessionCookieSecure: configFile.Session.CookieSecure,

		SMTPHost:     env("SMTP_HOST", configFile.SMTP.Host),
		SMTPPort:     configFile.SMTP.Port,
		SMTPUsername: env("SMTP_USER", configFile.SMTP.Username),
		SMTPPassword: env("SMTP_PASS", configFile.SMTP.Password),
		MailFrom:     configFile.SMTP.From,
		BaseURL:      configFile.SMTP.BaseURL,

		CasbinModelPath: configFile.Casbin.ModelPath,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
