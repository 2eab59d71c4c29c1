package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Studia/internal/models"
)

// DbClient defines all persistence operations the services need.
// Getters return (nil, nil) when the row does not exist.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateUpload(ctx context.Context, upload *models.Upload) error
	GetUploadByID(ctx context.Context, id string) (*models.Upload, error)
	ListUploadsByUser(ctx context.Context, userID string) ([]models.Upload, error)
	DeleteUpload(ctx context.Context, id string) error

	CreateStudyMaterial(ctx context.Context, m *models.StudyMaterial) error
	GetStudyMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	// ListStudyMaterialsByUser joins each material with its upload's filename.
	ListStudyMaterialsByUser(ctx context.Context, userID string) ([]models.MaterialView, error)

	ListUsageRecordsByUser(ctx context.Context, userID string) ([]models.UsageRecord, error)

	// WithTx runs fn in one transaction; it commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx LedgerTx) error) error

	Close() error
}

// LedgerTx is the view of the store available inside WithTx.
type LedgerTx interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetStudyMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	InsertUsageRecord(ctx context.Context, rec *models.UsageRecord) error
	// DebitCredits subtracts amount only if the balance covers it and reports
	// whether a row was updated.
	DebitCredits(ctx context.Context, userID string, amount int) (bool, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}
