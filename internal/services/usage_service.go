package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/metrics"
	"github.com/markdave123-py/Studia/internal/models"
)

// UsageService is the credit ledger. Every debit is paired with a usage
// record in the same transaction.
type UsageService struct {
	db     core.DbClient
	logger *slog.Logger
}

func NewUsageService(db core.DbClient, logger *slog.Logger) *UsageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageService{db: db, logger: logger}
}

func (s *UsageService) RecordUsage(ctx context.Context, userID, materialID string, creditsUsed int) (*models.UsageRecord, error) {
	if creditsUsed <= 0 {
		return nil, core.InvalidInput("credits used must be positive, got %d", creditsUsed)
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(materialID) == "" {
		return nil, core.InvalidInput("user id and material id are required")
	}

	var rec *models.UsageRecord
	err := s.db.WithTx(ctx, func(tx core.LedgerTx) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return &core.ResourceNotFoundError{Resource: "user", ID: userID}
		}
		if user.Credits < creditsUsed {
			return &core.InsufficientCreditsError{Required: creditsUsed, Available: user.Credits}
		}

		material, err := tx.GetStudyMaterialByID(ctx, materialID)
		if err != nil {
			return err
		}
		if material == nil || material.UserID != userID {
			return &core.ResourceNotFoundError{Resource: "study_material", ID: materialID}
		}

		r := &models.UsageRecord{
			ID:          uuid.NewString(),
			UserID:      userID,
			MaterialID:  materialID,
			CreditsUsed: creditsUsed,
		}
		if err := tx.InsertUsageRecord(ctx, r); err != nil {
			return err
		}

		ok, err := tx.DebitCredits(ctx, userID, creditsUsed)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrInsufficientCredits
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CreditsDebitedTotal.Add(float64(creditsUsed))
	s.logger.Info("usage recorded", "user_id", userID, "material_id", materialID, "credits", creditsUsed)
	return rec, nil
}

// ListUsage returns the user's records, newest first.
func (s *UsageService) ListUsage(ctx context.Context, userID string) ([]models.UsageRecord, error) {
	return s.db.ListUsageRecordsByUser(ctx, userID)
}
