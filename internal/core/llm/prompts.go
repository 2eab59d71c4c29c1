package llm

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/Studia/internal/core"
)

const systemPrompt = "You are a study assistant. You turn course material into accurate study aids. " +
	"Use only the provided material. Reply with a single JSON object and nothing else."

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "", "en":
		return "English"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "de":
		return "German"
	case "pt":
		return "Portuguese"
	default:
		return code
	}
}

// sourceBlock renders the material. Chunked input is sent part by part.
func sourceBlock(in core.GenerationInput) string {
	var b strings.Builder
	if in.ImageDataURL != "" {
		b.WriteString("The material is the attached image.\n")
		b.WriteString(in.Text)
		return b.String()
	}
	if len(in.Chunks) > 0 {
		fmt.Fprintf(&b, "The material is split into %d parts.\n", len(in.Chunks))
		for i, c := range in.Chunks {
			fmt.Fprintf(&b, "\n--- Part %d ---\n%s\n", i+1, c)
		}
		return b.String()
	}
	b.WriteString("Material:\n")
	b.WriteString(in.Text)
	return b.String()
}

func summaryPrompt(in core.GenerationInput, p core.SummaryParams) string {
	return fmt.Sprintf(`Write a %s summary of the material in %s.
Return JSON of the form:
{"title": string, "overview": string, "keyPoints": [string], "sections": [{"heading": string, "content": string}]}

%s`, p.DetailLevel, languageName(in.Language), sourceBlock(in))
}

func quizPrompt(in core.GenerationInput, p core.QuizParams) string {
	return fmt.Sprintf(`Write %d multiple-choice questions of %s difficulty about the material, in %s.
Each question has at least two options and exactly one correct option. correctIndex is the zero-based index of the correct option.
Return JSON of the form:
{"title": string, "questions": [{"question": string, "options": [string], "correctIndex": number, "explanation": string}]}

%s`, p.QuestionCount, p.Difficulty, languageName(in.Language), sourceBlock(in))
}

func flashcardPrompt(in core.GenerationInput, p core.FlashcardParams) string {
	return fmt.Sprintf(`Write %d flashcards about the key facts and terms of the material, in %s.
Return JSON of the form:
{"title": string, "cards": [{"front": string, "back": string}]}

%s`, p.CardCount, languageName(in.Language), sourceBlock(in))
}
