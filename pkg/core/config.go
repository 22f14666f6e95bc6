// Package core provides the main PersonaMem client and memory lifecycle
// operations.
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a PersonaMem client.
//
// It includes settings for:
//   - LLM provider (topic classification and keyword extraction)
//   - Embedding provider (vector generation)
//   - Graph store (memory persistence)
//   - Retrieval tuning (cache, timeouts, relationship maintenance)
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider:   "openai",
//	        APIKey:     "sk-...",
//	        Dimensions: 1536,
//	    },
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        SQLite: core.SQLiteConfig{
//	            DBPath: "./personamem.db",
//	        },
//	    },
//	}
type Config struct {
	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// Store contains graph store configuration.
	Store StoreConfig `json:"store"`

	// Retrieval contains retrieval and maintenance tuning (optional).
	Retrieval RetrievalConfig `json:"retrieval,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, anthropic
type LLMConfig struct {
	// Provider is the LLM provider name (openai, anthropic).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4", "claude-3-5-sonnet-20240620").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai, httpapi
type EmbedderConfig struct {
	// Provider is the embedding provider name (openai, httpapi).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name.
	Model string `json:"model"`

	// BaseURL is the base URL for the API. Required for httpapi, optional
	// for openai.
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors (e.g., 1536, 768).
	// Stored vectors and the store's vector index must agree on it.
	Dimensions int `json:"dimensions,omitempty"`
}

// StoreConfig contains configuration for the graph store.
//
// Supported providers: neo4j, sqlite
type StoreConfig struct {
	// Provider is the store provider name (neo4j, sqlite).
	Provider string `json:"provider"`

	// Neo4j contains Neo4j connection settings, used when Provider is "neo4j".
	Neo4j Neo4jConfig `json:"neo4j,omitempty"`

	// SQLite contains SQLite settings, used when Provider is "sqlite".
	SQLite SQLiteConfig `json:"sqlite,omitempty"`
}

// Neo4jConfig contains Neo4j connection settings.
type Neo4jConfig struct {
	// URI is the bolt or neo4j URI (e.g., "bolt://localhost:7687").
	URI string `json:"uri"`

	// Username is the database user.
	Username string `json:"username"`

	// Password is the database password.
	Password string `json:"password"`

	// Database is the database name (optional, driver default if empty).
	Database string `json:"database,omitempty"`

	// PoolSize is the number of pre-warmed sessions. Zero uses the default.
	PoolSize int `json:"pool_size,omitempty"`

	// VectorIndex enables the native vector index search strategy.
	VectorIndex bool `json:"vector_index,omitempty"`

	// CandidateLimit caps index candidates per query. Zero uses the default.
	CandidateLimit int `json:"candidate_limit,omitempty"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// DBPath is the database file path.
	DBPath string `json:"db_path"`
}

// RetrievalConfig tunes search and relationship maintenance.
//
// Zero values select the documented defaults, so an empty RetrievalConfig
// is always valid.
type RetrievalConfig struct {
	// CacheTTLSeconds is how long cached signal results live. Default: 300.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty"`

	// CacheMaxBytes bounds the signal cache size. Default: 32 MiB.
	CacheMaxBytes int64 `json:"cache_max_bytes,omitempty"`

	// SignalTimeoutSeconds bounds each signal call during search. Default: 10.
	SignalTimeoutSeconds int `json:"signal_timeout_seconds,omitempty"`

	// TemporalWindowMinutes is how close in time two memories must be to
	// receive a temporal relationship. Default: 30.
	TemporalWindowMinutes int `json:"temporal_window_minutes,omitempty"`

	// SemanticThreshold is the minimum cosine similarity for an automatic
	// similar_to relationship. Default: 0.75.
	SemanticThreshold float64 `json:"semantic_threshold,omitempty"`
}

// Retrieval tuning defaults.
const (
	DefaultCacheTTLSeconds       = 300
	DefaultCacheMaxBytes         = 32 << 20
	DefaultSignalTimeoutSeconds  = 10
	DefaultTemporalWindowMinutes = 30
	DefaultSemanticThreshold     = 0.75
)

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - STORE_PROVIDER (neo4j, sqlite)
//   - NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD, NEO4J_DATABASE,
//     NEO4J_POOL_SIZE, NEO4J_VECTOR_INDEX, NEO4J_CANDIDATE_LIMIT
//   - SQLITE_PATH
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - RETRIEVAL_CACHE_TTL, RETRIEVAL_CACHE_MAX_BYTES,
//     RETRIEVAL_SIGNAL_TIMEOUT, MEMORY_TEMPORAL_WINDOW,
//     MEMORY_SEMANTIC_THRESHOLD
//
// Returns a Config instance, or an error if loading fails.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		// If not found, try loading from current directory (godotenv default behavior)
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("STORE_PROVIDER", "sqlite")

	embedderProvider := getEnvOrDefault("EMBEDDING_PROVIDER", "openai")
	embedderModel := os.Getenv("EMBEDDING_MODEL")
	embedderBaseURL := os.Getenv("EMBEDDING_BASE_URL")
	var embedderDims int

	switch embedderProvider {
	case "openai":
		embedderDims, _ = strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "1536"))
		if embedderModel == "" {
			embedderModel = "text-embedding-ada-002"
		}
	default:
		embedderDims, _ = strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "768"))
	}

	storeConfig := StoreConfig{Provider: provider}
	switch provider {
	case "neo4j":
		poolSize, _ := strconv.Atoi(getEnvOrDefault("NEO4J_POOL_SIZE", "4"))
		candidateLimit, _ := strconv.Atoi(getEnvOrDefault("NEO4J_CANDIDATE_LIMIT", "256"))

		storeConfig.Neo4j = Neo4jConfig{
			URI:            getEnvOrDefault("NEO4J_URI", "bolt://localhost:7687"),
			Username:       getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
			Password:       os.Getenv("NEO4J_PASSWORD"),
			Database:       os.Getenv("NEO4J_DATABASE"),
			PoolSize:       poolSize,
			VectorIndex:    getEnvOrDefault("NEO4J_VECTOR_INDEX", "true") == "true",
			CandidateLimit: candidateLimit,
		}
	case "sqlite":
		storeConfig.SQLite = SQLiteConfig{
			DBPath: getEnvOrDefault("SQLITE_PATH", "./personamem.db"),
		}
	}

	// Get LLM provider to determine which default model to use
	llmProvider := getEnvOrDefault("LLM_PROVIDER", "openai")
	var defaultModel string

	switch llmProvider {
	case "anthropic":
		defaultModel = "claude-3-5-sonnet-20240620"
	default:
		defaultModel = "gpt-4"
	}

	cacheTTL, _ := strconv.Atoi(getEnvOrDefault("RETRIEVAL_CACHE_TTL", strconv.Itoa(DefaultCacheTTLSeconds)))
	cacheMaxBytes, _ := strconv.ParseInt(getEnvOrDefault("RETRIEVAL_CACHE_MAX_BYTES", strconv.FormatInt(DefaultCacheMaxBytes, 10)), 10, 64)
	signalTimeout, _ := strconv.Atoi(getEnvOrDefault("RETRIEVAL_SIGNAL_TIMEOUT", strconv.Itoa(DefaultSignalTimeoutSeconds)))
	temporalWindow, _ := strconv.Atoi(getEnvOrDefault("MEMORY_TEMPORAL_WINDOW", strconv.Itoa(DefaultTemporalWindowMinutes)))
	semanticThreshold, _ := strconv.ParseFloat(getEnvOrDefault("MEMORY_SEMANTIC_THRESHOLD", "0.75"), 64)

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      embedderModel,
			BaseURL:    embedderBaseURL,
			Dimensions: embedderDims,
		},
		Store: storeConfig,
		Retrieval: RetrievalConfig{
			CacheTTLSeconds:       cacheTTL,
			CacheMaxBytes:         cacheMaxBytes,
			SignalTimeoutSeconds:  signalTimeout,
			TemporalWindowMinutes: temporalWindow,
			SemanticThreshold:     semanticThreshold,
		},
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that the three providers are set and that provider-specific
// required fields are present:
//   - LLM provider must be openai or anthropic
//   - Embedder provider must be openai or httpapi; httpapi needs a base URL
//   - Store provider must be neo4j or sqlite; neo4j needs a URI
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	case "":
		return NewMemoryError("Validate", fmt.Errorf("%w: llm provider is required", ErrInvalidConfig))
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidConfig, c.LLM.Provider))
	}

	switch c.Embedder.Provider {
	case "openai":
	case "httpapi":
		if c.Embedder.BaseURL == "" {
			return NewMemoryError("Validate", fmt.Errorf("%w: httpapi embedder requires a base URL", ErrInvalidConfig))
		}
	case "":
		return NewMemoryError("Validate", fmt.Errorf("%w: embedder provider is required", ErrInvalidConfig))
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unsupported embedder provider %q", ErrInvalidConfig, c.Embedder.Provider))
	}

	switch c.Store.Provider {
	case "neo4j":
		if c.Store.Neo4j.URI == "" {
			return NewMemoryError("Validate", fmt.Errorf("%w: neo4j store requires a URI", ErrInvalidConfig))
		}
	case "sqlite":
	case "":
		return NewMemoryError("Validate", fmt.Errorf("%w: store provider is required", ErrInvalidConfig))
	default:
		return NewMemoryError("Validate", fmt.Errorf("%w: unsupported store provider %q", ErrInvalidConfig, c.Store.Provider))
	}

	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	// First check the current directory
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	// Check project root directory (search upward)
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
