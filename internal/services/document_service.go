package services

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"path"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

// UnavailableFilename is shown for materials whose upload was deleted.
const UnavailableFilename = "Unavailable"

// DocumentService serves a user's uploads and study materials. storage may
// be nil when archival is disabled.
type DocumentService struct {
	db      core.DbClient
	storage core.ObjectClient
	logger  *slog.Logger
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{db: db, storage: storage, logger: logger}
}

func (s *DocumentService) ListUploads(ctx context.Context, userID string) ([]models.Upload, error) {
	return s.db.ListUploadsByUser(ctx, userID)
}

// GetUpload returns the caller's upload. Uploads owned by someone else are
// reported as missing.
func (s *DocumentService) GetUpload(ctx context.Context, userID, id string) (*models.Upload, error) {
	up, err := s.db.GetUploadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if up == nil || up.UserID != userID {
		return nil, &core.ResourceNotFoundError{Resource: "upload", ID: id}
	}
	return up, nil
}

// OpenFile streams the archived original of an upload.
func (s *DocumentService) OpenFile(ctx context.Context, userID, id string) (io.ReadCloser, *models.Upload, string, error) {
	up, err := s.GetUpload(ctx, userID, id)
	if err != nil {
		return nil, nil, "", err
	}
	if s.storage == nil || up.StorageKey == "" {
		return nil, nil, "", &core.ResourceNotFoundError{Resource: "upload_file", ID: id}
	}
	rc, err := s.storage.GetObjectReader(ctx, up.StorageKey)
	if err != nil {
		return nil, nil, "", err
	}
	return rc, up, contentType(up.Filename), nil
}

// DeleteUpload removes the row, then its archived object. Materials built
// from the upload are kept.
func (s *DocumentService) DeleteUpload(ctx context.Context, userID, id string) error {
	up, err := s.GetUpload(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteUpload(ctx, id); err != nil {
		return err
	}
	if s.storage != nil && up.StorageKey != "" {
		if err := s.storage.DeleteFile(ctx, up.StorageKey); err != nil {
			s.logger.Error("delete archived object failed", "upload_id", id, "storage_key", up.StorageKey, "error", err)
		}
	}
	s.logger.Info("upload deleted", "upload_id", id, "user_id", userID)
	return nil
}

func (s *DocumentService) ListMaterials(ctx context.Context, userID string) ([]models.MaterialView, error) {
	materials, err := s.db.ListStudyMaterialsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		if materials[i].Filename == "" {
			materials[i].Filename = UnavailableFilename
		}
	}
	return materials, nil
}

func (s *DocumentService) GetMaterial(ctx context.Context, userID, id string) (*models.MaterialView, error) {
	m, err := s.db.GetStudyMaterialByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.UserID != userID {
		return nil, &core.ResourceNotFoundError{Resource: "study_material", ID: id}
	}
	name, err := s.filename(ctx, m.UploadID)
	if err != nil {
		return nil, err
	}
	return &models.MaterialView{StudyMaterial: *m, Filename: name}, nil
}

func (s *DocumentService) filename(ctx context.Context, uploadID string) (string, error) {
	up, err := s.db.GetUploadByID(ctx, uploadID)
	if err != nil {
		return "", err
	}
	if up == nil {
		return UnavailableFilename, nil
	}
	return up.Filename, nil
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
