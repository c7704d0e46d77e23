// Package config loads application configuration from the environment
// and an optional .env file.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	CORSOrigins []string
}

// Load reads configuration from env (optionally a .env file). Missing
// keys fall back to development defaults.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := viper.GetString("DB_PATH")
	if dbPath == "" {
		dbPath = "tenant-manager.db"
	}
	level := viper.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	origins := strings.Split(viper.GetString("CORS_ORIGINS"), ",")
	if len(origins) == 1 && origins[0] == "" {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	return &Config{
		Port:        port,
		DBPath:      dbPath,
		LogLevel:    level,
		CORSOrigins: origins,
	}, nil
}
