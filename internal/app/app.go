package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/clients/openai"
	"github.com/nisschay/Edu-Rag/internal/data/db"
	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/http/handlers"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/ingestion/chunker"
	"github.com/nisschay/Edu-Rag/internal/ingestion/extractor"
	"github.com/nisschay/Edu-Rag/internal/ingestion/pipeline"
	"github.com/nisschay/Edu-Rag/internal/jobs"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/platform/retry"
	"github.com/nisschay/Edu-Rag/internal/platform/tokenizer"
	"github.com/nisschay/Edu-Rag/internal/server"
	"github.com/nisschay/Edu-Rag/internal/services"
	"github.com/nisschay/Edu-Rag/internal/storage"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Router    *gin.Engine
	Cfg       Config
	Scheduler *jobs.Scheduler
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	gdb, err := db.Connect(cfg.DatabaseDSN, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	counter, err := tokenizer.New()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}

	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		log.Sync()
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	chunkIndexPath := filepath.Join(cfg.IndexDir, "chunks.idx")
	chunkMetaPath := filepath.Join(cfg.IndexDir, "chunks.meta.json")
	summaryIndexPath := filepath.Join(cfg.IndexDir, "summaries.idx")
	summaryMetaPath := filepath.Join(cfg.IndexDir, "summaries.meta.json")

	chunkIndex := vectorindex.New[domain.ChunkMeta](cfg.EmbeddingDim, log)
	if err := chunkIndex.Load(chunkIndexPath, chunkMetaPath); err != nil {
		log.Sync()
		return nil, fmt.Errorf("load chunk index: %w", err)
	}
	summaryIndex := vectorindex.New[domain.SummaryMeta](cfg.EmbeddingDim, log)
	if err := summaryIndex.Load(summaryIndexPath, summaryMetaPath); err != nil {
		log.Sync()
		return nil, fmt.Errorf("load summary index: %w", err)
	}

	pacer := retry.NewPacer(cfg.MinRequestInterval)
	aiClient, err := openai.NewClient(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		Retry:          retry.Default(),
	}, pacer, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init model client: %w", err)
	}

	userRepo := repos.NewUserRepo(gdb, log)
	subjectRepo := repos.NewSubjectRepo(gdb, log)
	unitRepo := repos.NewUnitRepo(gdb, log)
	topicRepo := repos.NewTopicRepo(gdb, log)
	fileRepo := repos.NewFileRepo(gdb, log)
	chunkRepo := repos.NewChunkRepo(gdb, log)
	stateRepo := repos.NewProcessingStateRepo(gdb, log)
	topicSumRepo := repos.NewTopicSummaryRepo(gdb, log)
	unitSumRepo := repos.NewUnitSummaryRepo(gdb, log)

	store, err := storage.NewLocalStore(cfg.UploadDir, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	retrievalSvc := services.NewRetrievalService(aiClient, chunkIndex, summaryIndex, chunkRepo, log)
	summarySvc := services.NewSummaryService(services.SummaryDeps{
		Subjects:      subjectRepo,
		Units:         unitRepo,
		Topics:        topicRepo,
		Chunks:        chunkRepo,
		TopicSums:     topicSumRepo,
		UnitSums:      unitSumRepo,
		Generator:     aiClient,
		Embedder:      aiClient,
		Counter:       counter,
		SummaryIndex:  summaryIndex,
		IndexPath:     summaryIndexPath,
		IndexMetaPath: summaryMetaPath,
	}, log)

	pipe := pipeline.New(pipeline.Deps{
		Units:         unitRepo,
		Subjects:      subjectRepo,
		Topics:        topicRepo,
		Files:         fileRepo,
		Chunks:        chunkRepo,
		States:        stateRepo,
		Extractor:     extractor.New(log),
		Chunker:       chunker.New(counter, log),
		Embedder:      aiClient,
		ChunkIndex:    chunkIndex,
		Summaries:     summarySvc,
		IndexPath:     chunkIndexPath,
		IndexMetaPath: chunkMetaPath,
	}, log)
	scheduler := jobs.NewScheduler(context.Background(), pipe.ProcessUnit, log)

	chatSvc := services.NewChatService(services.ChatDeps{
		Subjects:  subjectRepo,
		Units:     unitRepo,
		Topics:    topicRepo,
		Files:     fileRepo,
		TopicSums: topicSumRepo,
		UnitSums:  unitSumRepo,
		Retriever: retrievalSvc,
		Generator: aiClient,
	}, log)
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.AccessTokenTTL, log)

	scope := handlers.NewScopeResolver(subjectRepo, unitRepo, topicRepo)
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:   cfg.AllowOrigins,
		HealthHandler:  handlers.NewHealthHandler(),
		AuthHandler:    handlers.NewAuthHandler(authSvc, userRepo),
		SubjectHandler: handlers.NewSubjectHandler(subjectRepo, scope),
		UnitHandler:    handlers.NewUnitHandler(unitRepo, stateRepo, scope),
		TopicHandler:   handlers.NewTopicHandler(topicRepo, scope),
		FileHandler:    handlers.NewFileHandler(fileRepo, stateRepo, store, scheduler, scope, log),
		SummaryHandler: handlers.NewSummaryHandler(topicSumRepo, unitSumRepo, summarySvc, scope),
		ChatHandler:    handlers.NewChatHandler(chatSvc),
		AuthMiddleware: middleware.NewAuthMiddleware(authSvc, log),
	})

	return &App{
		Log:       log,
		DB:        gdb,
		Router:    router,
		Cfg:       cfg,
		Scheduler: scheduler,
	}, nil
}

func (a *App) Run() error {
	a.Log.Info("server listening", "port", a.Cfg.Port)
	return a.Router.Run(":" + a.Cfg.Port)
}

// Shutdown drains in-flight processing runs and flushes logs.
func (a *App) Shutdown() {
	a.Scheduler.Wait()
	a.Log.Sync()
}
