package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

var _ core.LedgerTx = (*txClient)(nil)

// txClient is the LedgerTx handed to WithTx callbacks.
type txClient struct {
	tx *sqlx.Tx
}

func (c *DatabaseClient) WithTx(ctx context.Context, fn func(tx core.LedgerTx) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txClient{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *txClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, t.tx, id)
}

func (t *txClient) GetStudyMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	return getStudyMaterialByID(ctx, t.tx, id)
}

func (t *txClient) InsertUsageRecord(ctx context.Context, rec *models.UsageRecord) error {
	if rec == nil {
		return errors.New("nil usage record")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO usage_records (id, user_id, material_id, credits_used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := t.tx.ExecContext(ctx, q, rec.ID, rec.UserID, rec.MaterialID, rec.CreditsUsed, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (t *txClient) DebitCredits(ctx context.Context, userID string, amount int) (bool, error) {
	const q = `
		UPDATE users
		SET credits = credits - $1, updated_at = $2
		WHERE id = $3 AND credits >= $4
	`
	res, err := t.tx.ExecContext(ctx, q, amount, time.Now().UTC(), userID, amount)
	if err != nil {
		return false, fmt.Errorf("debit credits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit credits: %w", err)
	}
	return n == 1, nil
}
