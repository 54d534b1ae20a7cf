// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific model lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/richinex/penelope/llm"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendSqlite = "sqlite"
)

// Settings holds all application configuration.
type Settings struct {
	Store  StoreConfig
	LLM    LLMConfig
	Server ServerConfig
}

// StoreConfig holds conversation store configuration.
type StoreConfig struct {
	Backend    string
	MongoURI   string
	Database   string
	SqlitePath string
}

// LLMConfig holds completion provider configuration. Model drives the
// interactive chat path; MiniModel drives the HTTP chat path.
type LLMConfig struct {
	Provider    llm.ProviderType
	Model       string
	MiniModel   string
	MaxTokens   int
	Temperature float32
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// New loads settings from environment variables. Returns an error when a
// value is malformed or a required value for the selected store backend is
// missing.
func New() (Settings, error) {
	providerName := os.Getenv("CHAT_PROVIDER")
	if providerName == "" {
		providerName = "ai21"
	}
	provider, err := llm.ParseProviderType(providerName)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid CHAT_PROVIDER: %w", err)
	}

	maxTokens, err := getEnvInt("CHAT_MAX_TOKENS", 150)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat32("CHAT_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = provider.DefaultModel()
	}
	miniModel := os.Getenv("CHAT_MINI_MODEL")
	if miniModel == "" {
		miniModel = provider.MiniModel()
	}

	store, err := loadStoreConfig()
	if err != nil {
		return Settings{}, err
	}

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Settings{
		Store: store,
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MiniModel:   miniModel,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Server: ServerConfig{Addr: addr},
	}, nil
}

func loadStoreConfig() (StoreConfig, error) {
	backend := strings.ToLower(os.Getenv("STORE_BACKEND"))
	if backend == "" {
		backend = BackendMongo
	}

	store := StoreConfig{Backend: backend}
	switch backend {
	case BackendMongo:
		store.MongoURI = os.Getenv("MONGO_URL")
		if store.MongoURI == "" {
			return StoreConfig{}, fmt.Errorf("MONGO_URL environment variable not set")
		}
		store.Database = os.Getenv("MONGO_DB")
		if store.Database == "" {
			store.Database = "penelope"
		}
	case BackendSqlite:
		store.SqlitePath = os.Getenv("SQLITE_PATH")
		if store.SqlitePath == "" {
			store.SqlitePath = ".penelope/penelope.db"
		}
	default:
		return StoreConfig{}, fmt.Errorf("unknown store backend: %q", backend)
	}

	return store, nil
}

// APIKey returns the configured provider's API key from the environment.
func (c LLMConfig) APIKey() (string, error) {
	key := os.Getenv(c.Provider.EnvVar())
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", c.Provider.EnvVar())
	}
	return key, nil
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat32(key string, defaultVal float32) (float32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return float32(f), nil
}
