package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGenerator lets each test decide per artifact what happens.
type fakeGenerator struct {
	summaryFunc    func(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error)
	quizFunc       func(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error)
	flashcardsFunc func(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error)
}

func (f *fakeGenerator) GenerateSummary(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
	if f.summaryFunc != nil {
		return f.summaryFunc(ctx, in, p)
	}
	return &models.Summary{Title: "Summary", Overview: "overview", KeyPoints: []string{"a"}}, nil
}

func (f *fakeGenerator) GenerateQuiz(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
	if f.quizFunc != nil {
		return f.quizFunc(ctx, in, p)
	}
	qs := make([]models.QuizQuestion, p.QuestionCount)
	for n := range qs {
		qs[n] = models.QuizQuestion{Question: "q", Options: []string{"x", "y"}, CorrectIndex: 1, Explanation: "because"}
	}
	return &models.Quiz{Title: "Quiz", Questions: qs}, nil
}

func (f *fakeGenerator) GenerateFlashcards(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error) {
	if f.flashcardsFunc != nil {
		return f.flashcardsFunc(ctx, in, p)
	}
	cards := make([]models.Flashcard, p.CardCount)
	for n := range cards {
		cards[n] = models.Flashcard{Front: "f", Back: "b"}
	}
	return &models.FlashcardDeck{Title: "Cards", Cards: cards}, nil
}

// fakeStore is an in-memory core.DbClient. The hooks inject failures.
type fakeStore struct {
	mu        sync.Mutex
	uploads   map[string]models.Upload
	materials map[string]models.StudyMaterial

	createMaterialErr error
	deleteUploadErr   error
	hideMaterials     bool
	deleted           []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string]models.Upload{}, materials: map[string]models.StudyMaterial{}}
}

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, nil
}

func (s *fakeStore) CreateUpload(ctx context.Context, u *models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.ID] = *u
	return nil
}

func (s *fakeStore) GetUploadByID(ctx context.Context, id string) (*models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *fakeStore) ListUploadsByUser(ctx context.Context, userID string) ([]models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Upload
	for _, u := range s.uploads {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteUpload(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteUploadErr != nil {
		return s.deleteUploadErr
	}
	delete(s.uploads, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) CreateStudyMaterial(ctx context.Context, m *models.StudyMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createMaterialErr != nil {
		return s.createMaterialErr
	}
	s.materials[m.ID] = *m
	return nil
}

func (s *fakeStore) GetStudyMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[id]
	if !ok || s.hideMaterials {
		return nil, nil
	}
	return &m, nil
}

func (s *fakeStore) ListStudyMaterialsByUser(ctx context.Context, userID string) ([]models.MaterialView, error) {
	return nil, nil
}

func (s *fakeStore) ListUsageRecordsByUser(ctx context.Context, userID string) ([]models.UsageRecord, error) {
	return nil, nil
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx core.LedgerTx) error) error {
	return errors.New("not supported by fakeStore")
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func (s *fakeStore) materialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.materials)
}

// fakeObjects is an in-memory core.ObjectClient.
type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (o *fakeObjects) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploadErr != nil {
		return "", o.uploadErr
	}
	o.objects[key] = append([]byte(nil), data...)
	return "mem://" + key, nil
}

func (o *fakeObjects) DeleteFile(ctx context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *fakeObjects) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (o *fakeObjects) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// fastRetry keeps tests quick while exercising the real policy.
var fastRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, AttemptTimeout: time.Second}
