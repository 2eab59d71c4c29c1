package ingestion_engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/metrics"
	"github.com/markdave123-py/Studia/internal/models"
)

// Ingestion stages, as logged.
const (
	stageUploadPersisted   = "upload_persisted"
	stageGenerating        = "generating"
	stageMaterialPersisted = "material_persisted"
	stageFailed            = "failed"
	stageUploadRolledBack  = "upload_rolled_back"
)

// NewDocumentIngestor wires the pipeline. obj may be nil.
func NewDocumentIngestor(db core.DbClient, obj core.ObjectClient, extractor core.DocumentExtractor, gen core.StudyGenerator, cfg IngestConfig, logger *slog.Logger) *DocumentIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	return &DocumentIngestor{
		db:           db,
		obj:          obj,
		extractor:    extractor,
		orchestrator: NewOrchestrator(gen, cfg.Retry, logger),
		cfg:          cfg,
		logger:       logger,
	}
}

// IngestAndGenerate persists the upload, generates its three artifacts and
// persists the study material. On any failure after the upload row exists the
// row (and its archived object) is deleted before the error is returned.
func (i *DocumentIngestor) IngestAndGenerate(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()
	res, _, err := i.ingest(ctx, req)
	observe(start, err)
	return res, err
}

// IngestFile extracts raw bytes, archives them when object storage is
// configured and then runs IngestAndGenerate.
func (i *DocumentIngestor) IngestFile(ctx context.Context, req FileIngestRequest) (*IngestResult, error) {
	start := time.Now()

	ext, err := i.extractor.Extract(req.Data, req.MimeHint)
	if err != nil {
		observe(start, err)
		return nil, err
	}

	var key string
	if i.obj != nil && strings.TrimSpace(req.UserID) != "" {
		key = objectKey(req.UserID, uuid.NewString(), req.Filename)
		if _, err := i.obj.UploadFile(ctx, key, req.Data, ext.MimeType); err != nil {
			err = fmt.Errorf("archive upload: %w", err)
			observe(start, err)
			return nil, err
		}
	}

	res, persisted, err := i.ingest(ctx, IngestRequest{
		UserID:     req.UserID,
		Filename:   req.Filename,
		Content:    ext.ContentText(),
		SourceType: ext.SourceType,
		Language:   req.Language,
		Mode:       req.Mode,
		Options:    req.Options,
		StorageKey: key,
	})
	if err != nil && key != "" && !persisted {
		if delErr := i.obj.DeleteFile(context.WithoutCancel(ctx), key); delErr != nil {
			i.logger.Error("delete archived object failed", "storage_key", key, "error", delErr)
		}
	}
	observe(start, err)
	return res, err
}

// ingest reports whether the upload row was ever created, so callers know if
// rollback already covered the archived object.
func (i *DocumentIngestor) ingest(ctx context.Context, req IngestRequest) (*IngestResult, bool, error) {
	if err := validateRequest(&req); err != nil {
		return nil, false, err
	}

	upload := &models.Upload{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Filename:    req.Filename,
		ContentText: req.Content,
		SourceType:  req.SourceType,
		StorageKey:  req.StorageKey,
		CreatedAt:   time.Now().UTC(),
	}
	if err := i.db.CreateUpload(ctx, upload); err != nil {
		return nil, false, fmt.Errorf("create upload: %w", err)
	}
	log := i.logger.With("upload_id", upload.ID, "user_id", upload.UserID)
	log.Info("ingestion stage", "stage", stageUploadPersisted, "source_type", upload.SourceType)

	input := i.generationInput(req)
	log.Info("ingestion stage", "stage", stageGenerating, "chunks", len(input.Chunks))

	content, err := i.orchestrator.Generate(ctx, input, req.Options)
	if err != nil {
		i.rollback(ctx, log, upload, err)
		return nil, true, &core.StudyMaterialGenerationError{UploadID: upload.ID, Err: err}
	}

	material, err := newStudyMaterial(upload, req, content)
	if err != nil {
		i.rollback(ctx, log, upload, err)
		return nil, true, err
	}
	if err := i.db.CreateStudyMaterial(ctx, material); err != nil {
		err = fmt.Errorf("create study material: %w", err)
		i.rollback(ctx, log, upload, err)
		return nil, true, err
	}

	stored, err := i.db.GetStudyMaterialByID(ctx, material.ID)
	if err != nil {
		err = fmt.Errorf("verify study material: %w", err)
		i.rollback(ctx, log, upload, err)
		return nil, true, err
	}
	if stored == nil {
		err = &core.ConsistencyError{Entity: "study_material", ID: material.ID}
		i.rollback(ctx, log, upload, err)
		return nil, true, err
	}

	log.Info("ingestion stage", "stage", stageMaterialPersisted, "material_id", stored.ID)
	return &IngestResult{Upload: upload, StudyMaterial: stored, Content: content}, true, nil
}

// rollback deletes the upload row and its archived object. Failures are
// logged and never replace cause.
func (i *DocumentIngestor) rollback(ctx context.Context, log *slog.Logger, upload *models.Upload, cause error) {
	log.Warn("ingestion stage", "stage", stageFailed, "error", cause)

	cleanupCtx := context.WithoutCancel(ctx)
	if err := i.db.DeleteUpload(cleanupCtx, upload.ID); err != nil {
		log.Error("rollback upload failed", "error", err, "cause", cause)
		return
	}
	if upload.StorageKey != "" && i.obj != nil {
		if err := i.obj.DeleteFile(cleanupCtx, upload.StorageKey); err != nil {
			log.Error("delete archived object failed", "storage_key", upload.StorageKey, "error", err)
		}
	}
	log.Info("ingestion stage", "stage", stageUploadRolledBack)
}

func (i *DocumentIngestor) generationInput(req IngestRequest) core.GenerationInput {
	in := core.GenerationInput{Language: req.Language}
	if req.SourceType == models.SourceTypeImage {
		in.Text = core.ImageAnalysisInstruction
		in.ImageDataURL = req.Content
		return in
	}
	in.Text = req.Content
	if utf8.RuneCountInString(req.Content) > i.cfg.MaxChunkSize {
		in.Chunks = Chunk(req.Content, i.cfg.MaxChunkSize, i.cfg.MaxChunks)
	}
	return in
}

// validateRequest checks required fields and fills Language and Mode defaults.
func validateRequest(req *IngestRequest) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return core.InvalidInput("user id is required")
	case strings.TrimSpace(req.Filename) == "":
		return core.InvalidInput("filename is required")
	case strings.TrimSpace(req.Content) == "":
		return core.InvalidInput("content is empty")
	case strings.TrimSpace(req.SourceType) == "":
		return core.InvalidInput("source type is required")
	case !models.ValidSourceType(req.SourceType):
		return core.InvalidInput("unknown source type %q", req.SourceType)
	}
	if req.SourceType == models.SourceTypeImage && !strings.HasPrefix(req.Content, "data:image/") {
		return core.InvalidInput("image content must be a data URL")
	}
	if req.Language == "" {
		req.Language = "en"
	}
	if req.Mode == "" {
		req.Mode = models.ModeReview
	}
	if !models.ValidMode(req.Mode) {
		return core.InvalidInput("unknown mode %q", req.Mode)
	}
	return nil
}

func newStudyMaterial(upload *models.Upload, req IngestRequest, content *models.StudyContent) (*models.StudyMaterial, error) {
	summary, err := json.Marshal(content.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	quiz, err := json.Marshal(content.Quiz)
	if err != nil {
		return nil, fmt.Errorf("encode quiz: %w", err)
	}
	cards, err := json.Marshal(content.Flashcards)
	if err != nil {
		return nil, fmt.Errorf("encode flashcards: %w", err)
	}
	return &models.StudyMaterial{
		ID:                uuid.NewString(),
		UploadID:          upload.ID,
		UserID:            upload.UserID,
		Summary:           types.JSONText(summary),
		QuizPayload:       types.JSONText(quiz),
		FlashcardsPayload: types.JSONText(cards),
		Language:          req.Language,
		Mode:              req.Mode,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// objectKey creates a consistent S3 key layout.
func objectKey(userID, uploadID, filename string) string {
	filename = filepath.Base(strings.TrimSpace(filename))
	filename = strings.ReplaceAll(filename, " ", "_")
	if filename == "." || filename == "/" || filename == "" {
		filename = "upload"
	}
	return path.Join("users", userID, "uploads", uploadID, filename)
}

func observe(start time.Time, err error) {
	metrics.IngestionDuration.Observe(time.Since(start).Seconds())
	metrics.IngestionsTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	var (
		extErr *core.ExtractionError
		genErr *core.StudyMaterialGenerationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &extErr), errors.Is(err, core.ErrInvalidInput):
		return "rejected"
	case errors.As(err, &genErr):
		return "generation_failed"
	default:
		return "error"
	}
}
