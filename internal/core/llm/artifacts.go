package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

// completion is one provider call: a system prompt, a user prompt and an
// optional image.
type completion struct {
	System       string
	User         string
	ImageDataURL string
}

type completeFunc func(ctx context.Context, req completion) (string, error)

// studyGenerator implements core.StudyGenerator on top of any provider that
// can answer a completion with JSON text.
type studyGenerator struct {
	complete completeFunc
	model    string
	now      func() time.Time
}

var _ core.StudyGenerator = (*studyGenerator)(nil)

func newStudyGenerator(complete completeFunc, model string) *studyGenerator {
	return &studyGenerator{complete: complete, model: model, now: time.Now}
}

func (g *studyGenerator) GenerateSummary(ctx context.Context, in core.GenerationInput, p core.SummaryParams) (*models.Summary, error) {
	var out models.Summary
	if err := g.generate(ctx, in, summaryPrompt(in, p), &out); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	if strings.TrimSpace(out.Overview) == "" && len(out.Sections) == 0 && len(out.KeyPoints) == 0 {
		return nil, errors.New("summary: model returned no content")
	}
	out.Title = titleOr(out.Title, "Summary")
	out.GeneratedAt = g.now().UTC()
	out.Model = g.model
	return &out, nil
}

func (g *studyGenerator) GenerateQuiz(ctx context.Context, in core.GenerationInput, p core.QuizParams) (*models.Quiz, error) {
	var out models.Quiz
	if err := g.generate(ctx, in, quizPrompt(in, p), &out); err != nil {
		return nil, fmt.Errorf("quiz: %w", err)
	}
	if err := validateQuiz(&out); err != nil {
		return nil, fmt.Errorf("quiz: %w", err)
	}
	if p.QuestionCount > 0 && len(out.Questions) > p.QuestionCount {
		out.Questions = out.Questions[:p.QuestionCount]
	}
	out.Title = titleOr(out.Title, "Quiz")
	out.GeneratedAt = g.now().UTC()
	out.Model = g.model
	return &out, nil
}

func (g *studyGenerator) GenerateFlashcards(ctx context.Context, in core.GenerationInput, p core.FlashcardParams) (*models.FlashcardDeck, error) {
	var out models.FlashcardDeck
	if err := g.generate(ctx, in, flashcardPrompt(in, p), &out); err != nil {
		return nil, fmt.Errorf("flashcards: %w", err)
	}
	if len(out.Cards) == 0 {
		return nil, errors.New("flashcards: model returned no cards")
	}
	for i, c := range out.Cards {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			return nil, fmt.Errorf("flashcards: card %d has an empty side", i)
		}
	}
	if p.CardCount > 0 && len(out.Cards) > p.CardCount {
		out.Cards = out.Cards[:p.CardCount]
	}
	out.Title = titleOr(out.Title, "Flashcards")
	out.GeneratedAt = g.now().UTC()
	out.Model = g.model
	return &out, nil
}

func (g *studyGenerator) generate(ctx context.Context, in core.GenerationInput, prompt string, v any) error {
	raw, err := g.complete(ctx, completion{System: systemPrompt, User: prompt, ImageDataURL: in.ImageDataURL})
	if err != nil {
		return err
	}
	return decodeObject(raw, v)
}

// decodeObject unmarshals the outermost {...} of raw, which tolerates code
// fences and chatter around the JSON.
func decodeObject(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return errors.New("response contains no JSON object")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func validateQuiz(q *models.Quiz) error {
	if len(q.Questions) == 0 {
		return errors.New("model returned no questions")
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("question %d is empty", i)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("question %d has %d options", i, len(question.Options))
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("question %d: correct index %d out of range", i, question.CorrectIndex)
		}
	}
	return nil
}

func titleOr(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}

// decodeDataURL splits "data:<mime>;base64,<payload>".
func decodeDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data url has no payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data url is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mime, data, nil
}
