package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	Environment string `mapstructure:"environment" validate:"oneof=development production test"`
}

// Address returns the host:port the server listens on
func (sc ServerConfig) Address() string {
	return net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
}

// IsProduction reports whether gin should run in release mode
func (sc ServerConfig) IsProduction() bool {
	return sc.Environment == "production"
}

// BaseURL is the address clients use to reach a locally running server
func (sc ServerConfig) BaseURL() string {
	host := sc.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(sc.Port)))
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
