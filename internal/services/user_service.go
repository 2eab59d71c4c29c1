package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

type UserService struct {
	db              core.DbClient
	startingCredits int
	logger          *slog.Logger
}

func NewUserService(db core.DbClient, startingCredits int, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{db: db, startingCredits: startingCredits, logger: logger}
}

// Ensure returns the user with the given id, provisioning it with the
// starting balance on first sight.
func (s *UserService) Ensure(ctx context.Context, id, email string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, core.InvalidInput("user id is required")
	}
	u, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = &models.User{ID: id, Email: email, Credits: s.startingCredits}
	if err := s.db.CreateUser(ctx, u); err != nil {
		// a concurrent request may have provisioned the same user
		if existing, getErr := s.db.GetUserByID(ctx, id); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("provision user: %w", err)
	}
	s.logger.Info("user provisioned", "user_id", id, "credits", u.Credits)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &core.ResourceNotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}
