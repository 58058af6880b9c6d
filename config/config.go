package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Upstream Studioz API.
	UpstreamAPIURL         string `mapstructure:"UPSTREAM_API_URL"`
	UpstreamTimeoutSeconds int    `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`

	// Booking behaviour.
	StudioTimezone        string `mapstructure:"STUDIO_TIMEZONE"`
	AnonCartTTLHours      int    `mapstructure:"ANON_CART_TTL_HOURS"`
	IntentTTLMinutes      int    `mapstructure:"INTENT_TTL_MINUTES"`
	UndoTTLSeconds        int    `mapstructure:"UNDO_TTL_SECONDS"`
	ReloadCooldownSeconds int    `mapstructure:"RELOAD_COOLDOWN_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "studioz")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_SESSION_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("UPSTREAM_API_URL", "http://localhost:3003/api")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)
	v.SetDefault("STUDIO_TIMEZONE", "Asia/Jerusalem")
	v.SetDefault("ANON_CART_TTL_HOURS", 24*7)
	v.SetDefault("INTENT_TTL_MINUTES", 15)
	v.SetDefault("UNDO_TTL_SECONDS", 300)
	v.SetDefault("RELOAD_COOLDOWN_SECONDS", 10)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Location resolves STUDIO_TIMEZONE, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		log.Printf("Unknown STUDIO_TIMEZONE %q, using UTC", c.StudioTimezone)
		return time.UTC
	}
	return loc
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

func (c Config) AnonCartTTL() time.Duration {
	return time.Duration(c.AnonCartTTLHours) * time.Hour
}

func (c Config) IntentTTL() time.Duration {
	return time.Duration(c.IntentTTLMinutes) * time.Minute
}

func (c Config) UndoTTL() time.Duration {
	return time.Duration(c.UndoTTLSeconds) * time.Second
}

func (c Config) ReloadCooldown() time.Duration {
	return time.Duration(c.ReloadCooldownSeconds) * time.Second
}
