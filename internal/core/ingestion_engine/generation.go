package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/metrics"
	"github.com/markdave123-py/Studia/internal/models"
)

const (
	ArtifactSummary    = "summary"
	ArtifactQuiz       = "quiz"
	ArtifactFlashcards = "flashcards"
)

// GenerationOptions carries per-artifact parameters. Zero values take defaults.
type GenerationOptions struct {
	Summary    core.SummaryParams
	Quiz       core.QuizParams
	Flashcards core.FlashcardParams
}

func (o GenerationOptions) withDefaults() GenerationOptions {
	if o.Summary.DetailLevel == "" {
		o.Summary.DetailLevel = "medium"
	}
	if o.Quiz.QuestionCount <= 0 {
		o.Quiz.QuestionCount = 10
	}
	if o.Quiz.Difficulty == "" {
		o.Quiz.Difficulty = "medium"
	}
	if o.Flashcards.CardCount <= 0 {
		o.Flashcards.CardCount = 15
	}
	return o
}

// Orchestrator runs the three artifact calls concurrently, each under its own
// retry budget.
type Orchestrator struct {
	gen    core.StudyGenerator
	retry  RetryPolicy
	logger *slog.Logger
}

func NewOrchestrator(gen core.StudyGenerator, policy RetryPolicy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gen: gen, retry: policy.normalized(), logger: logger}
}

// Generate waits for all three calls. If any of them exhausts its retries the
// first such failure is returned as a *core.GenerationError and the other
// results are discarded. A failing call never cancels its siblings.
func (o *Orchestrator) Generate(ctx context.Context, in core.GenerationInput, opts GenerationOptions) (*models.StudyContent, error) {
	opts = opts.withDefaults()

	var (
		summary *models.Summary
		quiz    *models.Quiz
		deck    *models.FlashcardDeck
		g       errgroup.Group
	)

	g.Go(func() (err error) {
		summary, err = runArtifact(ctx, o, ArtifactSummary, func(ctx context.Context) (*models.Summary, error) {
			return o.gen.GenerateSummary(ctx, in, opts.Summary)
		})
		return err
	})
	g.Go(func() (err error) {
		quiz, err = runArtifact(ctx, o, ArtifactQuiz, func(ctx context.Context) (*models.Quiz, error) {
			return o.gen.GenerateQuiz(ctx, in, opts.Quiz)
		})
		return err
	})
	g.Go(func() (err error) {
		deck, err = runArtifact(ctx, o, ArtifactFlashcards, func(ctx context.Context) (*models.FlashcardDeck, error) {
			return o.gen.GenerateFlashcards(ctx, in, opts.Flashcards)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.StudyContent{Summary: summary, Quiz: quiz, Flashcards: deck}, nil
}

func runArtifact[T any](ctx context.Context, o *Orchestrator, artifact string, call func(context.Context) (*T, error)) (*T, error) {
	var out *T
	attempts, err := o.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		v, err := call(ctx)
		if err == nil && v == nil {
			err = fmt.Errorf("generator returned an empty %s", artifact)
		}
		if err != nil {
			metrics.GenerationAttemptsTotal.WithLabelValues(artifact, "failure").Inc()
			o.logger.Warn("generation attempt failed", "artifact", artifact, "attempt", attempt, "error", err)
			return err
		}
		metrics.GenerationAttemptsTotal.WithLabelValues(artifact, "success").Inc()
		o.logger.Debug("generation attempt succeeded", "artifact", artifact, "attempt", attempt)
		out = v
		return nil
	})
	if err != nil {
		return nil, &core.GenerationError{Artifact: artifact, Attempts: attempts, Err: err}
	}
	return out, nil
}
