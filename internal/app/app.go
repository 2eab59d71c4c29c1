package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/markdave123-py/Studia/internal/api/handlers"
	"github.com/markdave123-py/Studia/internal/config"
	"github.com/markdave123-py/Studia/internal/core"
	db "github.com/markdave123-py/Studia/internal/core/database"
	"github.com/markdave123-py/Studia/internal/core/ingestion_engine"
	"github.com/markdave123-py/Studia/internal/core/llm"
	objectclient "github.com/markdave123-py/Studia/internal/core/object-client"
	"github.com/markdave123-py/Studia/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Ingestor     ingestion_engine.Ingestor
	Server       *Server

	closers []io.Closer
	logger  *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready", "driver", cfg.DatabaseDriver)
	a := &App{DBClient: dbClient, closers: []io.Closer{dbClient}, logger: logger}

	// archival is optional; a nil ObjectClient disables it
	var objClient core.ObjectClient
	if cfg.BucketName != "" {
		s3, err := objectclient.NewS3Client(appCtx, cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		objClient = s3
	} else {
		logger.Info("object storage disabled, raw uploads are not archived")
	}
	a.ObjectClient = objClient

	gen, err := newGenerator(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the generator: %w", err)
	}
	if c, ok := gen.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	logger.Info("generator ready", "provider", cfg.AIProvider)

	ingestor := ingestion_engine.NewDocumentIngestor(dbClient, objClient, ingestion_engine.NewExtractor(), gen, ingestion_engine.IngestConfig{
		MaxChunkSize: cfg.MaxChunkSize,
		MaxChunks:    cfg.MaxChunks,
		Retry: ingestion_engine.RetryPolicy{
			MaxAttempts:    cfg.GenMaxAttempts,
			BaseDelay:      cfg.GenRetryBaseDelay,
			AttemptTimeout: cfg.GenAttemptTimeout,
		},
	}, logger)
	a.Ingestor = ingestor

	users := services.NewUserService(dbClient, cfg.StartingCredits, logger)
	usage := services.NewUsageService(dbClient, logger)
	docs := services.NewDocumentService(dbClient, objClient, logger)

	a.Server = NewServer(cfg, users, Handlers{
		Documents: handlers.NewDocumentHandler(ingestor, docs, cfg.MaxUploadBytes, logger),
		Materials: handlers.NewMaterialHandler(docs, usage, logger),
		Users:     handlers.NewUserHandler(users, usage, logger),
	}, logger)

	return a, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (core.StudyGenerator, error) {
	switch cfg.AIProvider {
	case "openai":
		return llm.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case "gemini":
		return llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GenModel)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// Close releases the generator and database in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
