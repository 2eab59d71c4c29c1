package ingestion_engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

func TestGenerateAppliesDefaults(t *testing.T) {
	var gotSummary core.SummaryParams
	var gotQuiz core.QuizParams
	var gotCards core.FlashcardParams
	gen := &fakeGenerator{
		summaryFunc: func(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
			gotSummary = p
			return &models.Summary{Title: "s"}, nil
		},
		quizFunc: func(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
			gotQuiz = p
			return &models.Quiz{Title: "q"}, nil
		},
		flashcardsFunc: func(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error) {
			gotCards = p
			return &models.FlashcardDeck{Title: "f"}, nil
		},
	}

	o := NewOrchestrator(gen, fastRetry, discardLogger())
	content, err := o.Generate(context.Background(), core.GenerationInput{Text: "x"}, GenerationOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content.Summary.Title != "s" || content.Quiz.Title != "q" || content.Flashcards.Title != "f" {
		t.Fatalf("unexpected content: %+v", content)
	}
	if gotSummary.DetailLevel != "medium" || gotQuiz.QuestionCount != 10 || gotQuiz.Difficulty != "medium" || gotCards.CardCount != 15 {
		t.Fatalf("defaults not applied: %+v %+v %+v", gotSummary, gotQuiz, gotCards)
	}
}

func TestGenerateRunsArtifactsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inFlight.Add(-1)
	}
	gen := &fakeGenerator{
		summaryFunc: func(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
			track()
			return &models.Summary{}, nil
		},
		quizFunc: func(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
			track()
			return &models.Quiz{}, nil
		},
		flashcardsFunc: func(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error) {
			track()
			return &models.FlashcardDeck{}, nil
		},
	}

	if _, err := NewOrchestrator(gen, fastRetry, discardLogger()).Generate(context.Background(), core.GenerationInput{Text: "x"}, GenerationOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if peak.Load() < 2 {
		t.Fatalf("artifact calls did not overlap (peak=%d)", peak.Load())
	}
}

func TestGenerateRetryBudgetsAreIndependent(t *testing.T) {
	var summaryCalls, quizCalls atomic.Int32
	gen := &fakeGenerator{
		summaryFunc: func(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
			if summaryCalls.Add(1) < 3 {
				return nil, errors.New("flaky summary")
			}
			return &models.Summary{Title: "ok"}, nil
		},
		quizFunc: func(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
			if quizCalls.Add(1) < 3 {
				return nil, errors.New("flaky quiz")
			}
			return &models.Quiz{Title: "ok"}, nil
		},
	}

	content, err := NewOrchestrator(gen, fastRetry, discardLogger()).Generate(context.Background(), core.GenerationInput{Text: "x"}, GenerationOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if summaryCalls.Load() != 3 || quizCalls.Load() != 3 {
		t.Fatalf("each artifact should get its own 3 attempts: summary=%d quiz=%d", summaryCalls.Load(), quizCalls.Load())
	}
	if content.Summary.Title != "ok" || content.Quiz.Title != "ok" {
		t.Fatalf("unexpected content: %+v", content)
	}
}

func TestGenerateReportsExhaustedArtifactAfterSiblingsFinish(t *testing.T) {
	var quizCalls atomic.Int32
	var summaryDone atomic.Bool
	boom := errors.New("quiz model down")

	gen := &fakeGenerator{
		summaryFunc: func(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
			time.Sleep(60 * time.Millisecond)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			summaryDone.Store(true)
			return &models.Summary{}, nil
		},
		quizFunc: func(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
			quizCalls.Add(1)
			return nil, boom
		},
	}

	content, err := NewOrchestrator(gen, fastRetry, discardLogger()).Generate(context.Background(), core.GenerationInput{Text: "x"}, GenerationOptions{})
	if content != nil {
		t.Fatalf("partial results must be discarded, got %+v", content)
	}
	var genErr *core.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want *GenerationError, got %T %v", err, err)
	}
	if genErr.Artifact != ArtifactQuiz || genErr.Attempts != 3 || !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %+v", genErr)
	}
	if quizCalls.Load() != 3 {
		t.Fatalf("want exactly 3 quiz attempts, got %d", quizCalls.Load())
	}
	if !summaryDone.Load() {
		t.Fatal("sibling summary call should run to completion, not be cancelled")
	}
}

func TestGenerateTreatsNilArtifactAsFailure(t *testing.T) {
	gen := &fakeGenerator{
		flashcardsFunc: func(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error) {
			return nil, nil
		},
	}
	_, err := NewOrchestrator(gen, fastRetry, discardLogger()).Generate(context.Background(), core.GenerationInput{Text: "x"}, GenerationOptions{})
	var genErr *core.GenerationError
	if !errors.As(err, &genErr) || genErr.Artifact != ArtifactFlashcards {
		t.Fatalf("want flashcards GenerationError, got %v", err)
	}
}
