package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string  `yaml:"addr" toml:"addr"`
	RateLimitRPS     float64 `yaml:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst   int     `yaml:"rate_limit_burst" toml:"rate_limit_burst"`
	ReadTimeoutSecs  int     `yaml:"read_timeout_secs" toml:"read_timeout_secs"`
	WriteTimeoutSecs int     `yaml:"write_timeout_secs" toml:"write_timeout_secs"`
}

// EmbedderConfig selects and configures the question embedder.
type EmbedderConfig struct {
	Type        string `yaml:"type" toml:"type"`
	Model       string `yaml:"model" toml:"model"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	BaseURL     string `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// PineconeConfig locates the hosted handbook index.
type PineconeConfig struct {
	Index         string `yaml:"index" toml:"index"`
	Host          string `yaml:"host,omitempty" toml:"host,omitempty"`
	Namespace     string `yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	APIKeyEnv     string `yaml:"api_key_env" toml:"api_key_env"`
	ControllerURL string `yaml:"controller_url,omitempty" toml:"controller_url,omitempty"`
	TimeoutSecs   int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" toml:"url"`
	APIKey      string `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	Collection  string `yaml:"collection" toml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector index.
type VectorStoreConfig struct {
	Type     string          `yaml:"type" toml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty" toml:"pinecone,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type        string  `yaml:"type" toml:"type"`
	Model       string  `yaml:"model" toml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env" toml:"api_key_env"`
	BaseURL     string  `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
}

// RetrievalConfig tunes how many passages are fetched and which are kept.
type RetrievalConfig struct {
	TopK         int     `yaml:"top_k" toml:"top_k"`
	MinScore     float64 `yaml:"min_score" toml:"min_score"`
	SnippetChars int     `yaml:"snippet_chars" toml:"snippet_chars"`
}

// LocalConfig describes the handbook files indexed in offline mode.
type LocalConfig struct {
	Handbook          []string `yaml:"handbook" toml:"handbook"`
	SentencesPerChunk int      `yaml:"sentences_per_chunk" toml:"sentences_per_chunk"`
	OverlapSentences  int      `yaml:"overlap_sentences" toml:"overlap_sentences"`
	Watch             bool     `yaml:"watch" toml:"watch"`
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	APIURL string `yaml:"api_url" toml:"api_url"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator" toml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" toml:"retrieval"`
	Local       LocalConfig       `yaml:"local" toml:"local"`
	Client      ClientConfig      `yaml:"client" toml:"client"`
	Log         LogConfig         `yaml:"log" toml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Paths ending in .toml are parsed as TOML, anything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./handbookbot.yaml first, then ~/.config/handbookbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/handbookbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "handbookbot.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects backend types the binary does not know and combinations
// that cannot work together.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "google", "openai", "tfidf":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "pinecone", "qdrant", "memory":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	switch c.Generator.Type {
	case "google", "openai":
	default:
		return fmt.Errorf("unknown generator type %q", c.Generator.Type)
	}
	if (c.Embedder.Type == "tfidf") != (c.VectorStore.Type == "memory") {
		return errors.New("the tfidf embedder and the memory vector store must be used together")
	}
	if c.VectorStore.Type == "memory" && len(c.Local.Handbook) == 0 {
		return errors.New("local.handbook must list at least one file for the memory vector store")
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore >= 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1), got %v", c.Retrieval.MinScore)
	}
	return nil
}

// Secrets holds API keys read from the environment.
type Secrets struct {
	Embedder  string
	Generator string
	Pinecone  string
}

// ReadSecrets reads every API key the configured backends need. Call it once
// at startup, after the .env file has been loaded.
func ReadSecrets(cfg *AppConfig) Secrets {
	var s Secrets
	if cfg.Embedder.APIKeyEnv != "" {
		s.Embedder = os.Getenv(cfg.Embedder.APIKeyEnv)
	}
	if cfg.Generator.APIKeyEnv != "" {
		s.Generator = os.Getenv(cfg.Generator.APIKeyEnv)
	}
	if p := cfg.VectorStore.Pinecone; p != nil && p.APIKeyEnv != "" {
		s.Pinecone = os.Getenv(p.APIKeyEnv)
	}
	return s
}

// Seconds converts a config value in seconds to a duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "handbookbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "google"},
		VectorStore: VectorStoreConfig{Type: "pinecone"},
		Generator:   GeneratorConfig{Type: "google", Temperature: 0.3},
		Retrieval:   RetrievalConfig{MinScore: 0.6},
		Local:       LocalConfig{Handbook: []string{"handbook/*.md", "handbook/*.txt"}, OverlapSentences: 1},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 15
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 60
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimitRPS) + 1
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "google"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	switch cfg.Embedder.Type {
	case "google":
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "embedding-001"
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "GOOGLE_API_KEY"
		}
	case "openai":
		if cfg.Embedder.BaseURL == "" {
			cfg.Embedder.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pinecone"
	}
	switch cfg.VectorStore.Type {
	case "pinecone":
		if cfg.VectorStore.Pinecone == nil {
			cfg.VectorStore.Pinecone = &PineconeConfig{}
		}
		p := cfg.VectorStore.Pinecone
		if p.Index == "" {
			p.Index = "handbook-index"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "PINECONE_API_KEY"
		}
		if p.ControllerURL == "" {
			p.ControllerURL = "https://api.pinecone.io"
		}
		if p.TimeoutSecs == 0 {
			p.TimeoutSecs = 30
		}
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		q := cfg.VectorStore.Qdrant
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.Collection == "" {
			q.Collection = "handbook"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 30
		}
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "google"
	}
	switch cfg.Generator.Type {
	case "google":
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "gemini-1.5-flash"
		}
		if cfg.Generator.APIKeyEnv == "" {
			cfg.Generator.APIKeyEnv = "GOOGLE_API_KEY"
		}
	case "openai":
		if cfg.Generator.BaseURL == "" {
			cfg.Generator.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "gpt-4o-mini"
		}
		if cfg.Generator.APIKeyEnv == "" {
			cfg.Generator.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.3
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.6
	}
	if cfg.Retrieval.SnippetChars == 0 {
		cfg.Retrieval.SnippetChars = 300
	}

	if cfg.Local.SentencesPerChunk == 0 {
		cfg.Local.SentencesPerChunk = 5
	}

	if cfg.Client.APIURL == "" {
		cfg.Client.APIURL = "http://localhost:8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
