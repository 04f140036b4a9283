package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	EmbedModel    string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	EmbedBatchSize     int
	MaxConcurrentEmbed int

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkMaxChars      int
	SentenceLookback   int
	WhitespaceLookback int
	PageWindowLimit    int

	// Retrieval
	TopK             int
	MaxResults       int
	VectorWeight     float64
	KeywordWeight    float64
	TFIDFWeight      float64
	BengaliThreshold float64
	EnglishThreshold float64

	// Chat
	MemoryCapacity  int
	HistoryTurns    int
	MaxAnswerTokens int
	Temperature     float64

	// Evaluation
	RelevanceThreshold float64

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("BANGLARAG_API_KEY"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:     envOr("CHAT_MODEL", "gpt-4.1"),
		EmbedModel:    envOr("EMBED_MODEL", "text-embedding-3-small"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		EmbedBatchSize:     envInt("EMBED_BATCH_SIZE", 10),
		MaxConcurrentEmbed: envInt("MAX_CONCURRENT_EMBED", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkMaxChars:      envInt("CHUNK_MAX_CHARS", 5500),
		SentenceLookback:   envInt("SENTENCE_LOOKBACK", 500),
		WhitespaceLookback: envInt("WHITESPACE_LOOKBACK", 100),
		PageWindowLimit:    envInt("PAGE_WINDOW_LIMIT", 25),

		TopK:             envInt("RETRIEVAL_TOP_K", 5),
		MaxResults:       envInt("RETRIEVAL_MAX_RESULTS", 5),
		VectorWeight:     envFloat("VECTOR_WEIGHT", 0.60),
		KeywordWeight:    envFloat("KEYWORD_WEIGHT", 0.25),
		TFIDFWeight:      envFloat("TFIDF_WEIGHT", 0.15),
		BengaliThreshold: envFloat("BENGALI_THRESHOLD", 0.30),
		EnglishThreshold: envFloat("ENGLISH_THRESHOLD", 0.35),

		MemoryCapacity:  envInt("MEMORY_CAPACITY", 10),
		HistoryTurns:    envInt("HISTORY_TURNS", 5),
		MaxAnswerTokens: envInt("MAX_ANSWER_TOKENS", 1024),
		Temperature:     envFloat("TEMPERATURE", 0.2),

		RelevanceThreshold: envFloat("RELEVANCE_THRESHOLD", 0.6),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	if cfg.MaxConcurrentEmbed <= 0 {
		cfg.MaxConcurrentEmbed = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = 5500
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = 10
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 5
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("BANGLARAG_API_KEY is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.VectorWeight < 0 || c.KeywordWeight < 0 || c.TFIDFWeight < 0 {
		return fmt.Errorf("retrieval weights must be non-negative")
	}
	// Component scores are each in [0,1], so the weights must not sum
	// past 1 or composite scores leave that range.
	if sum := c.VectorWeight + c.KeywordWeight + c.TFIDFWeight; sum > 1+1e-9 {
		return fmt.Errorf("retrieval weights sum to %.3f, must not exceed 1", sum)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
