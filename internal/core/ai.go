package core

import (
	"context"

	"github.com/markdave123-py/Studia/internal/models"
)

// ImageAnalysisInstruction is the text sent alongside an image upload.
const ImageAnalysisInstruction = "Analyze the attached image and produce study material from everything it shows: text, diagrams, formulas and labels."

// GenerationInput is the normalized content handed to the generator.
// Chunks is set only when Text was longer than one chunk.
type GenerationInput struct {
	Text         string
	ImageDataURL string
	Chunks       []string
	Language     string
}

type SummaryParams struct {
	DetailLevel string // brief | medium | detailed
}

type QuizParams struct {
	QuestionCount int
	Difficulty    string // easy | medium | hard
}

type FlashcardParams struct {
	CardCount int
}

// StudyGenerator produces the three study artifacts from one input.
type StudyGenerator interface {
	GenerateSummary(ctx context.Context, in GenerationInput, p SummaryParams) (*models.Summary, error)
	GenerateQuiz(ctx context.Context, in GenerationInput, p QuizParams) (*models.Quiz, error)
	GenerateFlashcards(ctx context.Context, in GenerationInput, p FlashcardParams) (*models.FlashcardDeck, error)
}
