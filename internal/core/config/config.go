// Package config provides configuration management for the policykeeper service.
package config

import (
	"net"
	"os"
	"strconv"
	"time"
)

// APIKeyEnv names the environment variable holding the text-generation API key.
// The key is never read from config files.
const APIKeyEnv = "PK_LLM_API_KEY"

// Config is the resolved service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
}

// ServerConfig holds listener settings for the HTTP and gRPC servers.
type ServerConfig struct {
	Host           string
	Port           int
	GRPCPort       int // 0 disables the gRPC server
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// DatabaseConfig selects the policy store: sqlite://, postgres://, mongodb:// or memory://.
type DatabaseConfig struct {
	URL string
}

// LLMConfig configures the text-generation client.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	APIKey  string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			GRPCPort:       50051,
			RequestTimeout: 120 * time.Second,
			MaxUploadBytes: 20 << 20,
		},
		Database: DatabaseConfig{URL: "sqlite://./data/policykeeper.db"},
		LLM: LLMConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
			Timeout: 90 * time.Second,
		},
	}
}

// HTTPAddr is the HTTP listen address.
func (s ServerConfig) HTTPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GRPCAddr is the gRPC listen address.
func (s ServerConfig) GRPCAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
}

// APIKey returns the text-generation API key from the environment.
func APIKey() string {
	return os.Getenv(APIKeyEnv)
}
