package file

import (
	"os"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Configuration keys. Environment variables override file values for
// the API keys so they never have to be written to disk.
const (
	KeyOpenAIAPIKey   = "openai.api_key"
	KeyOpenAIBaseURL  = "openai.base_url"
	KeyChatModel      = "openai.chat_model"
	KeyEmbeddingModel = "openai.embedding_model"
	KeyBraveAPIKey    = "brave.api_key"
	KeyChunkSize      = "index.chunk_size"
	KeyChunkOverlap   = "index.chunk_overlap"
	KeySimilarityTopK = "index.similarity_top_k"
	KeyToolTimeout    = "index.tool_timeout_seconds"
	KeyMaxConcurrency = "index.max_concurrency"
	KeyPersistIndex   = "index.persist"

	envOpenAIKey = "OPENAI_API_KEY"
	envBraveKey  = "BRAVE_API_KEY"
)

// Settings is the typed application configuration assembled from a
// config store and the environment.
type Settings struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	BraveAPIKey    string
	PersistIndex   bool
	Index          domain.IndexOptions
}

// LoadSettings reads typed settings, filling gaps with defaults.
func LoadSettings(store driven.ConfigStore) Settings {
	s := Settings{
		OpenAIAPIKey:   os.Getenv(envOpenAIKey),
		OpenAIBaseURL:  store.GetString(KeyOpenAIBaseURL),
		ChatModel:      store.GetString(KeyChatModel),
		EmbeddingModel: store.GetString(KeyEmbeddingModel),
		BraveAPIKey:    os.Getenv(envBraveKey),
		PersistIndex:   store.GetBool(KeyPersistIndex),
		Index:          domain.DefaultIndexOptions(),
	}
	if s.OpenAIAPIKey == "" {
		s.OpenAIAPIKey = store.GetString(KeyOpenAIAPIKey)
	}
	if s.BraveAPIKey == "" {
		s.BraveAPIKey = store.GetString(KeyBraveAPIKey)
	}

	if v := store.GetInt(KeyChunkSize); v > 0 {
		s.Index.ChunkSize = v
	}
	if v := store.GetInt(KeyChunkOverlap); v > 0 {
		s.Index.ChunkOverlap = v
	}
	if v := store.GetInt(KeySimilarityTopK); v > 0 {
		s.Index.SimilarityTopK = v
	}
	if v := store.GetInt(KeyToolTimeout); v > 0 {
		s.Index.ToolTimeout = time.Duration(v) * time.Second
	}
	if v := store.GetInt(KeyMaxConcurrency); v > 0 {
		s.Index.MaxConcurrency = v
	}
	return s
}
