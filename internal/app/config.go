package app

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nisschay/Edu-Rag/internal/platform/envutil"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type Config struct {
	Port         string
	LogMode      string
	AllowOrigins []string

	DatabaseDSN string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	EmbeddingDim   int

	UploadDir string
	IndexDir  string

	MinRequestInterval time.Duration
}

// fileConfig is the optional YAML overlay pointed at by CONFIG_PATH.
// Set fields override the environment.
type fileConfig struct {
	Port           string   `yaml:"port"`
	AllowOrigins   []string `yaml:"allow_origins"`
	DatabaseDSN    string   `yaml:"database_dsn"`
	OpenAIBaseURL  string   `yaml:"openai_base_url"`
	EmbeddingModel string   `yaml:"embedding_model"`
	ChatModel      string   `yaml:"chat_model"`
	EmbeddingDim   int      `yaml:"embedding_dim"`
	UploadDir      string   `yaml:"upload_dir"`
	IndexDir       string   `yaml:"index_dir"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not load .env file", "error", err)
	}

	cfg := Config{
		Port:               envutil.GetEnv("PORT", "8080"),
		LogMode:            envutil.GetEnv("LOG_MODE", "development"),
		DatabaseDSN:        envutil.GetEnv("DATABASE_DSN", ""),
		JWTSecretKey:       envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:     envutil.GetEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
		OpenAIAPIKey:       envutil.GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      envutil.GetEnv("OPENAI_BASE_URL", ""),
		EmbeddingModel:     envutil.GetEnv("EMBEDDING_MODEL", ""),
		ChatModel:          envutil.GetEnv("CHAT_MODEL", ""),
		EmbeddingDim:       envutil.GetEnvInt("EMBEDDING_DIM", 1536),
		UploadDir:          envutil.GetEnv("UPLOAD_DIR", "data/uploads"),
		IndexDir:           envutil.GetEnv("INDEX_DIR", "data/indexes"),
		MinRequestInterval: envutil.GetEnvDuration("MIN_REQUEST_INTERVAL", 150*time.Millisecond),
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		var overlay fileConfig
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
		applyOverlay(&cfg, overlay)
		log.Info("applied config overlay", "path", path)
	}

	if cfg.DatabaseDSN == "" {
		return cfg, fmt.Errorf("DATABASE_DSN is required")
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, overlay fileConfig) {
	if overlay.Port != "" {
		cfg.Port = overlay.Port
	}
	if len(overlay.AllowOrigins) > 0 {
		cfg.AllowOrigins = overlay.AllowOrigins
	}
	if overlay.DatabaseDSN != "" {
		cfg.DatabaseDSN = overlay.DatabaseDSN
	}
	if overlay.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = overlay.OpenAIBaseURL
	}
	if overlay.EmbeddingModel != "" {
		cfg.EmbeddingModel = overlay.EmbeddingModel
	}
	if overlay.ChatModel != "" {
		cfg.ChatModel = overlay.ChatModel
	}
	if overlay.EmbeddingDim != 0 {
		cfg.EmbeddingDim = overlay.EmbeddingDim
	}
	if overlay.UploadDir != "" {
		cfg.UploadDir = overlay.UploadDir
	}
	if overlay.IndexDir != "" {
		cfg.IndexDir = overlay.IndexDir
	}
}
