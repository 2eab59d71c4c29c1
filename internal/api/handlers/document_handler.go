package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/markdave123-py/Studia/internal/api/middlewares"
	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/core/ingestion_engine"
	"github.com/markdave123-py/Studia/internal/models"
	"github.com/markdave123-py/Studia/internal/services"
)

const defaultTextFilename = "Pasted text"

type DocumentHandler struct {
	ingestor       ingestion_engine.Ingestor
	docs           *services.DocumentService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewDocumentHandler(ing ingestion_engine.Ingestor, docs *services.DocumentService, maxUploadBytes int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{ingestor: ing, docs: docs, maxUploadBytes: maxUploadBytes, logger: logger}
}

// UploadDocument ingests a multipart file upload and answers with the
// generated study material.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.badUpload(w, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	data, err := readUpload(file, h.maxUploadBytes)
	if err != nil {
		h.badUpload(w, err)
		return
	}

	opts, err := parseOptions(r.FormValue)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	res, err := h.ingestor.IngestFile(r.Context(), ingestion_engine.FileIngestRequest{
		UserID:   userID,
		Filename: filepath.Base(header.Filename),
		Data:     data,
		MimeHint: header.Header.Get("Content-Type"),
		Language: r.FormValue("language"),
		Mode:     r.FormValue("mode"),
		Options:  opts,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type textUploadRequest struct {
	Filename       string `json:"filename"`
	Text           string `json:"text"`
	Language       string `json:"language"`
	Mode           string `json:"mode"`
	DetailLevel    string `json:"detail_level"`
	Difficulty     string `json:"difficulty"`
	QuestionCount  int    `json:"question_count"`
	FlashcardCount int    `json:"flashcard_count"`
}

// UploadText ingests pasted text.
func (h *DocumentHandler) UploadText(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	var req textUploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		req.Filename = defaultTextFilename
	}

	res, err := h.ingestor.IngestAndGenerate(r.Context(), ingestion_engine.IngestRequest{
		UserID:     userID,
		Filename:   req.Filename,
		Content:    req.Text,
		SourceType: models.SourceTypeRaw,
		Language:   req.Language,
		Mode:       req.Mode,
		Options: ingestion_engine.GenerationOptions{
			Summary:    core.SummaryParams{DetailLevel: req.DetailLevel},
			Quiz:       core.QuizParams{QuestionCount: req.QuestionCount, Difficulty: req.Difficulty},
			Flashcards: core.FlashcardParams{CardCount: req.FlashcardCount},
		},
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *DocumentHandler) GetUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	uploads, err := h.docs.ListUploads(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

// DownloadFile streams the archived original.
func (h *DocumentHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	rc, up, contentType, err := h.docs.OpenFile(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(up.Filename))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream upload file failed", "upload_id", up.ID, "error", err)
	}
}

func (h *DocumentHandler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	if err := h.docs.DeleteUpload(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) badUpload(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, errUploadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid multipart form")
}

var errUploadTooLarge = errors.New("upload too large")

func readUpload(f multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// parseOptions reads the generation options shared by form and query
// parameters.
func parseOptions(get func(string) string) (ingestion_engine.GenerationOptions, error) {
	var opts ingestion_engine.GenerationOptions
	atoi := func(name string) (int, error) {
		v := strings.TrimSpace(get(name))
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, core.InvalidInput("%s must be a non-negative integer", name)
		}
		return n, nil
	}

	var err error
	if opts.Quiz.QuestionCount, err = atoi("question_count"); err != nil {
		return opts, err
	}
	if opts.Flashcards.CardCount, err = atoi("flashcard_count"); err != nil {
		return opts, err
	}
	opts.Summary.DetailLevel = strings.TrimSpace(get("detail_level"))
	opts.Quiz.Difficulty = strings.TrimSpace(get("difficulty"))
	return opts, nil
}
