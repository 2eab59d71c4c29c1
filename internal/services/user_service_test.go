package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/Studia/internal/core"
)

func TestEnsureProvisionsOnce(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	s := NewUserService(store, 20, discardLogger())

	u, err := s.Ensure(ctx, "u1", "a@example.com")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if u.Credits != 20 || u.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	s2 := NewUserService(store, 99, discardLogger())
	again, err := s2.Ensure(ctx, "u1", "other@example.com")
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if again.Credits != 20 || again.Email != "a@example.com" {
		t.Fatalf("existing user must not be reprovisioned: %+v", again)
	}

	if _, err := s.Ensure(ctx, " ", ""); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestGetMissingUser(t *testing.T) {
	s := NewUserService(newTestDB(t), 0, discardLogger())
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, core.ErrResourceNotFound) {
		t.Fatalf("want ErrResourceNotFound, got %v", err)
	}
}
