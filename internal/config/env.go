package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// APIKeys holds all provider credentials loaded from environment
type APIKeys struct {
	OpenAI string
	Gemini string
	// OllamaURL is not a secret but is configured the same way
	OllamaURL string
}

// LoadEnv loads environment variables from the first .env file found and
// returns its path, or "" when there is none. Variables already set in the
// process environment win.
func LoadEnv() (string, error) {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}

	return "", nil
}

// GetAPIKeys retrieves and validates API keys from environment variables
// Implements fail-fast: a malformed key is an error, a missing one is not
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{
		OpenAI:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		OllamaURL: strings.TrimSpace(getEnvOrDefault("OLLAMA_HOST", "")),
	}

	if apiKeys.OpenAI != "" {
		if err := ValidateAPIKey(apiKeys.OpenAI, "OpenAI"); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidAPIKey, "OPENAI_API_KEY: "+err.Error())
		}
	}
	if apiKeys.Gemini != "" {
		if err := ValidateAPIKey(apiKeys.Gemini, "Gemini"); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidAPIKey, "GEMINI_API_KEY: "+err.Error())
		}
	}
	if apiKeys.OllamaURL != "" {
		if err := ValidateURL(apiKeys.OllamaURL, "OLLAMA_HOST"); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
		}
	}

	return apiKeys, nil
}

// Available lists the hosted providers that have a key
func (k *APIKeys) Available() []string {
	var available []string
	if k.OpenAI != "" {
		available = append(available, "openai")
	}
	if k.Gemini != "" {
		available = append(available, "gemini")
	}
	return available
}

// RequireFor fails fast when a hosted provider in providers has no key
func (k *APIKeys) RequireFor(providers []string) error {
	for _, p := range providers {
		switch strings.ToLower(p) {
		case "openai":
			if k.OpenAI == "" {
				return apperrors.Wrap(apperrors.ErrMissingAPIKey, "openai: set OPENAI_API_KEY in environment or .env file")
			}
		case "gemini":
			if k.Gemini == "" {
				return apperrors.Wrap(apperrors.ErrMissingAPIKey, "gemini: set GEMINI_API_KEY in environment or .env file")
			}
		}
	}
	return nil
}

// InitializeEnv loads .env and the API keys.
// This is the main entry point for credential loading
func InitializeEnv() (*APIKeys, string, error) {
	envFile, err := LoadEnv()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	apiKeys, err := GetAPIKeys()
	if err != nil {
		return nil, envFile, fmt.Errorf("failed to get API keys: %w", err)
	}

	return apiKeys, envFile, nil
}
