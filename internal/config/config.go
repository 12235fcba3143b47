package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	PostgreSQL PostgreSQLConfig
	Auth       AuthConfig
	Discord    DiscordConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// PostgreSQLConfig holds database configuration
type PostgreSQLConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Schema       string
	PoolMaxConns int
}

// AuthConfig holds login token configuration
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// DiscordConfig holds the optional expense-notification bot configuration
type DiscordConfig struct {
	Enable    bool
	Token     string
	ChannelID string
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PostgreSQL.Host == "" || cfg.PostgreSQL.DBName == "" {
		return nil, fmt.Errorf("database configuration is incomplete")
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth JWT secret is required")
	}

	if cfg.Discord.Enable && cfg.Discord.Token == "" {
		return nil, fmt.Errorf("discord notifications enabled but no bot token configured")
	}

	return &cfg, nil
}

// Initialize sets up viper with defaults and loads config
func Initialize() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("PostgreSQL.Host", "localhost")
	viper.SetDefault("PostgreSQL.Port", 5432)
	viper.SetDefault("PostgreSQL.User", "postgres")
	viper.SetDefault("PostgreSQL.DBName", "expense_tracker")
	viper.SetDefault("PostgreSQL.Schema", "public")
	viper.SetDefault("PostgreSQL.PoolMaxConns", 10)

	viper.SetDefault("Server.Port", "8000")

	viper.SetDefault("Auth.TokenTTLMinutes", 30)

	viper.SetDefault("Discord.Enable", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Fatal error reading config file: %v", err)
	}

	log.Println("Configuration loaded successfully")
}

// GetString gets a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt gets an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}
