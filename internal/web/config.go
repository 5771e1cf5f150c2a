package web

import "github.com/counselmatch/internal/config"

// Config holds the review API server settings.
type Config struct {
	Host string
	Port int
}

// LoadConfig reads the server settings from the environment.
func LoadConfig() *Config {
	return &Config{
		Host: config.GetEnv("WEB_HOST", "127.0.0.1"),
		Port: config.GetEnvInt("WEB_PORT", 8080),
	}
}
