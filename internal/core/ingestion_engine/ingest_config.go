package ingestion_engine

import (
	"log/slog"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

// IngestConfig tunes the pipeline.
//
// MaxChunkSize: rune budget per chunk; longer text is also sent as chunks.
// MaxChunks:    cap on chunks per upload.
// Retry:        per-artifact retry policy.
type IngestConfig struct {
	MaxChunkSize int
	MaxChunks    int
	Retry        RetryPolicy
}

// IngestRequest is one already-extracted piece of content. For images,
// Content is the base64 data URL.
type IngestRequest struct {
	UserID     string
	Filename   string
	Content    string
	SourceType string
	Language   string
	Mode       string
	Options    GenerationOptions
	StorageKey string
}

// FileIngestRequest carries raw upload bytes.
type FileIngestRequest struct {
	UserID   string
	Filename string
	Data     []byte
	MimeHint string
	Language string
	Mode     string
	Options  GenerationOptions
}

type IngestResult struct {
	Upload        *models.Upload        `json:"upload"`
	StudyMaterial *models.StudyMaterial `json:"study_material"`
	Content       *models.StudyContent  `json:"content"`
}

// DocumentIngestor persists an upload, generates its study material and rolls
// the upload back when generation fails.
//
// db:           persistence for uploads and materials.
// obj:          optional archive for raw upload bytes; nil disables archival.
// extractor:    raw bytes to text or image payload.
// orchestrator: the three concurrent artifact calls.
type DocumentIngestor struct {
	db           core.DbClient
	obj          core.ObjectClient
	extractor    core.DocumentExtractor
	orchestrator *Orchestrator
	cfg          IngestConfig
	logger       *slog.Logger
}
