package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx/types"

	"github.com/markdave123-py/Studia/internal/core"
	db "github.com/markdave123-py/Studia/internal/core/database"
	"github.com/markdave123-py/Studia/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *db.DatabaseClient {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "studia.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	c, err := db.Open(context.Background(), "sqlite", dsn, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedUpload(t *testing.T, store core.DbClient, id, userID, filename, key string) {
	t.Helper()
	up := &models.Upload{ID: id, UserID: userID, Filename: filename, ContentText: "text", SourceType: models.SourceTypeTXT, StorageKey: key}
	if err := store.CreateUpload(context.Background(), up); err != nil {
		t.Fatalf("create upload: %v", err)
	}
}

func seedMaterial(t *testing.T, store core.DbClient, id, uploadID, userID string) {
	t.Helper()
	m := &models.StudyMaterial{
		ID:                id,
		UploadID:          uploadID,
		UserID:            userID,
		Summary:           types.JSONText(`{"title":"s"}`),
		QuizPayload:       types.JSONText(`{"questions":[]}`),
		FlashcardsPayload: types.JSONText(`{"cards":[]}`),
		Language:          "en",
		Mode:              models.ModeReview,
	}
	if err := store.CreateStudyMaterial(context.Background(), m); err != nil {
		t.Fatalf("create material: %v", err)
	}
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	delErr  error
}

func (m *memObjects) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "mem://" + key, nil
}

func (m *memObjects) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memObjects) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
