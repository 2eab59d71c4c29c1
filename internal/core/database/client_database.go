package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/markdave123-py/Studia/internal/config"
	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	return Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
}

// Open connects with the given driver ("pgx" or "sqlite") and migrates the schema.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*DatabaseClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if driver == "sqlite" {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path != "" && path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db.DB, driver, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	logger.Info("database connected", "driver", driver)
	return &DatabaseClient{db: db, logger: logger}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	const q = `
		INSERT INTO users (id, email, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.Email, user.Credits, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, c.db, id)
}

// Uploads

func (c *DatabaseClient) CreateUpload(ctx context.Context, upload *models.Upload) error {
	if upload == nil {
		return errors.New("nil upload")
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO uploads (id, user_id, filename, content_text, source_type, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, q,
		upload.ID, upload.UserID, upload.Filename, upload.ContentText, upload.SourceType, upload.StorageKey, upload.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetUploadByID(ctx context.Context, id string) (*models.Upload, error) {
	const q = `
		SELECT id, user_id, filename, content_text, source_type, storage_key, created_at
		FROM uploads
		WHERE id = $1
	`
	var u models.Upload
	if err := c.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &u, nil
}

func (c *DatabaseClient) ListUploadsByUser(ctx context.Context, userID string) ([]models.Upload, error) {
	const q = `
		SELECT id, user_id, filename, content_text, source_type, storage_key, created_at
		FROM uploads
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	out := []models.Upload{}
	if err := c.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return out, nil
}

// DeleteUpload removes the row. Deleting a missing upload is not an error.
func (c *DatabaseClient) DeleteUpload(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Study materials

func (c *DatabaseClient) CreateStudyMaterial(ctx context.Context, m *models.StudyMaterial) error {
	if m == nil {
		return errors.New("nil study material")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO study_materials
			(id, upload_id, user_id, summary, quiz_payload, flashcards_payload, language, mode, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, q,
		m.ID, m.UploadID, m.UserID, m.Summary.String(), m.QuizPayload.String(), m.FlashcardsPayload.String(),
		m.Language, m.Mode, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert study material: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetStudyMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	return getStudyMaterialByID(ctx, c.db, id)
}

func (c *DatabaseClient) ListStudyMaterialsByUser(ctx context.Context, userID string) ([]models.MaterialView, error) {
	const q = `
		SELECT m.id, m.upload_id, m.user_id, m.summary, m.quiz_payload, m.flashcards_payload,
		       m.language, m.mode, m.created_at, COALESCE(u.filename, '') AS filename
		FROM study_materials m
		LEFT JOIN uploads u ON u.id = m.upload_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, m.id
	`
	out := []models.MaterialView{}
	if err := c.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("list study materials: %w", err)
	}
	return out, nil
}

// Usage records

func (c *DatabaseClient) ListUsageRecordsByUser(ctx context.Context, userID string) ([]models.UsageRecord, error) {
	const q = `
		SELECT id, user_id, material_id, credits_used, created_at
		FROM usage_records
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	out := []models.UsageRecord{}
	if err := c.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	return out, nil
}

// shared by the client and the transaction

func getUserByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.User, error) {
	const query = `
		SELECT id, email, credits, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u models.User
	if err := sqlx.GetContext(ctx, q, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func getStudyMaterialByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.StudyMaterial, error) {
	const query = `
		SELECT id, upload_id, user_id, summary, quiz_payload, flashcards_payload, language, mode, created_at
		FROM study_materials
		WHERE id = $1
	`
	var m models.StudyMaterial
	if err := sqlx.GetContext(ctx, q, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get study material: %w", err)
	}
	return &m, nil
}
