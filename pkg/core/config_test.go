package core_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalabs/personamem-go/pkg/core"
)

// envKeys lists every variable LoadConfigFromEnv reads.
var envKeys = []string{
	"STORE_PROVIDER",
	"NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD", "NEO4J_DATABASE",
	"NEO4J_POOL_SIZE", "NEO4J_VECTOR_INDEX", "NEO4J_CANDIDATE_LIMIT",
	"SQLITE_PATH",
	"LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
	"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_MODEL",
	"EMBEDDING_BASE_URL", "EMBEDDING_DIMS",
	"RETRIEVAL_CACHE_TTL", "RETRIEVAL_CACHE_MAX_BYTES", "RETRIEVAL_SIGNAL_TIMEOUT",
	"MEMORY_TEMPORAL_WINDOW", "MEMORY_SEMANTIC_THRESHOLD",
}

// resetEnv unsets every configuration variable and restores prior values
// when the test finishes.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

// isolatedDir moves the test into a directory nested deeper than the
// upward .env search reaches, so no ambient .env file can leak in.
func isolatedDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "a", "b", "c", "d", "e", "f")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	chdir(t, dir)
	return dir
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	resetEnv(t)
	isolatedDir(t)

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.Store.Provider)
	assert.Equal(t, "./personamem.db", config.Store.SQLite.DBPath)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4", config.LLM.Model)
	assert.Equal(t, "openai", config.Embedder.Provider)
	assert.Equal(t, "text-embedding-ada-002", config.Embedder.Model)
	assert.Equal(t, 1536, config.Embedder.Dimensions)

	assert.Equal(t, core.DefaultCacheTTLSeconds, config.Retrieval.CacheTTLSeconds)
	assert.Equal(t, int64(core.DefaultCacheMaxBytes), config.Retrieval.CacheMaxBytes)
	assert.Equal(t, core.DefaultSignalTimeoutSeconds, config.Retrieval.SignalTimeoutSeconds)
	assert.Equal(t, core.DefaultTemporalWindowMinutes, config.Retrieval.TemporalWindowMinutes)
	assert.InDelta(t, core.DefaultSemanticThreshold, config.Retrieval.SemanticThreshold, 1e-9)
}

func TestLoadConfigFromEnvNeo4j(t *testing.T) {
	resetEnv(t)
	isolatedDir(t)

	os.Setenv("STORE_PROVIDER", "neo4j")
	os.Setenv("NEO4J_URI", "bolt://graph.internal:7687")
	os.Setenv("NEO4J_USERNAME", "reader")
	os.Setenv("NEO4J_PASSWORD", "secret")
	os.Setenv("NEO4J_DATABASE", "personas")
	os.Setenv("NEO4J_POOL_SIZE", "8")
	os.Setenv("NEO4J_VECTOR_INDEX", "false")
	os.Setenv("NEO4J_CANDIDATE_LIMIT", "64")
	defer func() {
		for _, key := range []string{
			"STORE_PROVIDER", "NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD",
			"NEO4J_DATABASE", "NEO4J_POOL_SIZE", "NEO4J_VECTOR_INDEX", "NEO4J_CANDIDATE_LIMIT",
		} {
			os.Unsetenv(key)
		}
	}()

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "neo4j", config.Store.Provider)
	assert.Equal(t, "bolt://graph.internal:7687", config.Store.Neo4j.URI)
	assert.Equal(t, "reader", config.Store.Neo4j.Username)
	assert.Equal(t, "secret", config.Store.Neo4j.Password)
	assert.Equal(t, "personas", config.Store.Neo4j.Database)
	assert.Equal(t, 8, config.Store.Neo4j.PoolSize)
	assert.False(t, config.Store.Neo4j.VectorIndex)
	assert.Equal(t, 64, config.Store.Neo4j.CandidateLimit)
}

func TestLoadConfigFromEnvAnthropicModelDefault(t *testing.T) {
	resetEnv(t)
	isolatedDir(t)

	os.Setenv("LLM_PROVIDER", "anthropic")
	defer os.Unsetenv("LLM_PROVIDER")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20240620", config.LLM.Model)
}

func TestLoadConfigFromEnvHTTPAPIEmbedder(t *testing.T) {
	resetEnv(t)
	isolatedDir(t)

	os.Setenv("EMBEDDING_PROVIDER", "httpapi")
	os.Setenv("EMBEDDING_BASE_URL", "http://embeddings.internal:8080/v1")
	os.Setenv("EMBEDDING_API_KEY", "embed-key")
	defer func() {
		os.Unsetenv("EMBEDDING_PROVIDER")
		os.Unsetenv("EMBEDDING_BASE_URL")
		os.Unsetenv("EMBEDDING_API_KEY")
	}()

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "httpapi", config.Embedder.Provider)
	assert.Equal(t, "http://embeddings.internal:8080/v1", config.Embedder.BaseURL)
	assert.Equal(t, "embed-key", config.Embedder.APIKey)
	assert.Equal(t, 768, config.Embedder.Dimensions, "non-OpenAI embedders default to 768 dimensions")
	assert.Empty(t, config.Embedder.Model)
}

func TestLoadConfigFromEnvRetrievalTuning(t *testing.T) {
	resetEnv(t)
	isolatedDir(t)

	os.Setenv("RETRIEVAL_CACHE_TTL", "60")
	os.Setenv("RETRIEVAL_CACHE_MAX_BYTES", "1048576")
	os.Setenv("RETRIEVAL_SIGNAL_TIMEOUT", "5")
	os.Setenv("MEMORY_TEMPORAL_WINDOW", "15")
	os.Setenv("MEMORY_SEMANTIC_THRESHOLD", "0.9")
	defer func() {
		os.Unsetenv("RETRIEVAL_CACHE_TTL")
		os.Unsetenv("RETRIEVAL_CACHE_MAX_BYTES")
		os.Unsetenv("RETRIEVAL_SIGNAL_TIMEOUT")
		os.Unsetenv("MEMORY_TEMPORAL_WINDOW")
		os.Unsetenv("MEMORY_SEMANTIC_THRESHOLD")
	}()

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 60, config.Retrieval.CacheTTLSeconds)
	assert.Equal(t, int64(1048576), config.Retrieval.CacheMaxBytes)
	assert.Equal(t, 5, config.Retrieval.SignalTimeoutSeconds)
	assert.Equal(t, 15, config.Retrieval.TemporalWindowMinutes)
	assert.InDelta(t, 0.9, config.Retrieval.SemanticThreshold, 1e-9)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	resetEnv(t)
	dir := isolatedDir(t)

	envPath := filepath.Join(dir, "custom.env")
	content := "STORE_PROVIDER=sqlite\nSQLITE_PATH=/data/personas.db\nLLM_PROVIDER=anthropic\nLLM_API_KEY=sk-ant-test\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o644))
	defer func() {
		for _, key := range []string{"STORE_PROVIDER", "SQLITE_PATH", "LLM_PROVIDER", "LLM_API_KEY"} {
			os.Unsetenv(key)
		}
	}()

	config, err := core.LoadConfigFromEnvFile(envPath)
	require.NoError(t, err)

	assert.Equal(t, "/data/personas.db", config.Store.SQLite.DBPath)
	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "sk-ant-test", config.LLM.APIKey)

	_, err = core.LoadConfigFromEnvFile(filepath.Join(dir, "does-not-exist.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load .env file")
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "llm": {"provider": "anthropic", "api_key": "sk-ant-test", "model": "claude-3-5-sonnet-20240620"},
  "embedder": {"provider": "httpapi", "base_url": "http://embeddings.internal:8080/v1", "dimensions": 768},
  "store": {"provider": "neo4j", "neo4j": {"uri": "bolt://localhost:7687", "username": "neo4j", "password": "secret", "pool_size": 8, "vector_index": true}},
  "retrieval": {"cache_ttl_seconds": 120, "semantic_threshold": 0.8}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := core.LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20240620", config.LLM.Model)
	assert.Equal(t, "httpapi", config.Embedder.Provider)
	assert.Equal(t, 768, config.Embedder.Dimensions)
	assert.Equal(t, "neo4j", config.Store.Provider)
	assert.Equal(t, "bolt://localhost:7687", config.Store.Neo4j.URI)
	assert.Equal(t, 8, config.Store.Neo4j.PoolSize)
	assert.True(t, config.Store.Neo4j.VectorIndex)
	assert.Equal(t, 120, config.Retrieval.CacheTTLSeconds)
	assert.InDelta(t, 0.8, config.Retrieval.SemanticThreshold, 1e-9)

	require.NoError(t, config.Validate())
}

func TestLoadConfigFromJSONErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := core.LoadConfigFromJSON(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LoadConfigFromJSON")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))
	_, err = core.LoadConfigFromJSON(broken)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *core.Config {
		return &core.Config{
			LLM:      core.LLMConfig{Provider: "openai", APIKey: "key"},
			Embedder: core.EmbedderConfig{Provider: "openai"},
			Store:    core.StoreConfig{Provider: "sqlite"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*core.Config)
		wantErr string
	}{
		{
			name: "valid sqlite stack",
		},
		{
			name: "valid neo4j anthropic httpapi stack",
			mutate: func(c *core.Config) {
				c.LLM.Provider = "anthropic"
				c.Embedder = core.EmbedderConfig{Provider: "httpapi", BaseURL: "http://embeddings.internal:8080"}
				c.Store = core.StoreConfig{Provider: "neo4j", Neo4j: core.Neo4jConfig{URI: "bolt://localhost:7687"}}
			},
		},
		{
			name:    "missing llm provider",
			mutate:  func(c *core.Config) { c.LLM.Provider = "" },
			wantErr: "llm provider is required",
		},
		{
			name:    "unsupported llm provider",
			mutate:  func(c *core.Config) { c.LLM.Provider = "llama" },
			wantErr: "unsupported llm provider",
		},
		{
			name:    "missing embedder provider",
			mutate:  func(c *core.Config) { c.Embedder.Provider = "" },
			wantErr: "embedder provider is required",
		},
		{
			name:    "httpapi embedder without base url",
			mutate:  func(c *core.Config) { c.Embedder = core.EmbedderConfig{Provider: "httpapi"} },
			wantErr: "requires a base URL",
		},
		{
			name:    "unsupported embedder provider",
			mutate:  func(c *core.Config) { c.Embedder.Provider = "cohere" },
			wantErr: "unsupported embedder provider",
		},
		{
			name:    "neo4j store without uri",
			mutate:  func(c *core.Config) { c.Store = core.StoreConfig{Provider: "neo4j"} },
			wantErr: "requires a URI",
		},
		{
			name:    "missing store provider",
			mutate:  func(c *core.Config) { c.Store.Provider = "" },
			wantErr: "store provider is required",
		},
		{
			name:    "unsupported store provider",
			mutate:  func(c *core.Config) { c.Store.Provider = "mysql" },
			wantErr: "unsupported store provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			if tt.mutate != nil {
				tt.mutate(config)
			}

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, core.ErrInvalidConfig))
		})
	}
}

func TestFindEnvFileInCurrentDirectory(t *testing.T) {
	dir := isolatedDir(t)

	path, found := core.FindEnvFile()
	assert.False(t, found)
	assert.Empty(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.example"), []byte("LLM_PROVIDER=openai\n"), 0o644))
	path, found = core.FindEnvFile()
	require.True(t, found)
	assert.Equal(t, ".env.example", path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LLM_PROVIDER=openai\n"), 0o644))
	path, found = core.FindEnvFile()
	require.True(t, found)
	assert.Equal(t, ".env", path, ".env wins over .env.example")
}

func TestFindEnvFileSearchesUpward(t *testing.T) {
	base := t.TempDir()
	deep := filepath.Join(base, "services", "worker")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, ".env"), []byte("STORE_PROVIDER=sqlite\n"), 0o644))
	chdir(t, deep)

	path, found := core.FindEnvFile()
	require.True(t, found)
	assert.Equal(t, ".env", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "STORE_PROVIDER=sqlite\n", string(data))
}

func TestFindEnvFileStopsAfterFiveLevels(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, ".env"), []byte("STORE_PROVIDER=sqlite\n"), 0o644))

	deep := filepath.Join(base, "a", "b", "c", "d", "e", "f")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	chdir(t, deep)

	_, found := core.FindEnvFile()
	assert.False(t, found, "the upward search is capped at five levels")
}
