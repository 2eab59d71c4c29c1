package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Source types an Upload can carry.
const (
	SourceTypePDF   = "pdf"
	SourceTypeDOCX  = "docx"
	SourceTypeTXT   = "txt"
	SourceTypeRaw   = "raw"
	SourceTypeImage = "image"
)

// Study modes a material can be opened in.
const (
	ModeSummary   = "summary"
	ModeQuiz      = "quiz"
	ModeFlashcard = "flashcard"
	ModeReview    = "review"
)

// ValidSourceType reports whether s is one of the known source types.
func ValidSourceType(s string) bool {
	switch s {
	case SourceTypePDF, SourceTypeDOCX, SourceTypeTXT, SourceTypeRaw, SourceTypeImage:
		return true
	}
	return false
}

// ValidMode reports whether m is one of the known study modes.
func ValidMode(m string) bool {
	switch m {
	case ModeSummary, ModeQuiz, ModeFlashcard, ModeReview:
		return true
	}
	return false
}

// User represents an authenticated user of the system.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Credits   int       `db:"credits" json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Upload is one ingested source. ContentText holds the extracted text, or the
// base64 data URL when SourceType is image.
type Upload struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Filename    string    `db:"filename" json:"filename"`
	ContentText string    `db:"content_text" json:"content_text"`
	SourceType  string    `db:"source_type" json:"source_type"`
	StorageKey  string    `db:"storage_key" json:"storage_key,omitempty"` // empty when not archived
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudyMaterial holds the three generated artifacts of one ingestion as JSON.
type StudyMaterial struct {
	ID                string         `db:"id" json:"id"`
	UploadID          string         `db:"upload_id" json:"upload_id"`
	UserID            string         `db:"user_id" json:"user_id"`
	Summary           types.JSONText `db:"summary" json:"summary"`
	QuizPayload       types.JSONText `db:"quiz_payload" json:"quiz_payload"`
	FlashcardsPayload types.JSONText `db:"flashcards_payload" json:"flashcards_payload"`
	Language          string         `db:"language" json:"language"`
	Mode              string         `db:"mode" json:"mode"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// MaterialView is a study material with the filename of its upload. Filename
// is empty when the upload no longer exists.
type MaterialView struct {
	StudyMaterial
	Filename string `db:"filename" json:"filename"`
}

// UsageRecord is one credit debit against a study material.
type UsageRecord struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	MaterialID  string    `db:"material_id" json:"material_id"`
	CreditsUsed int       `db:"credits_used" json:"credits_used"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Summary is the summary artifact.
type Summary struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Model       string           `json:"model"`
	Overview    string           `json:"overview"`
	KeyPoints   []string         `json:"keyPoints"`
	Sections    []SummarySection `json:"sections"`
}

type SummarySection struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Quiz is the quiz artifact. CorrectIndex is zero-based into Options.
type Quiz struct {
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Model       string         `json:"model"`
	Questions   []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// FlashcardDeck is the flashcards artifact.
type FlashcardDeck struct {
	Title       string      `json:"title"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Model       string      `json:"model"`
	Cards       []Flashcard `json:"cards"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// StudyContent bundles the three artifacts of one generation.
type StudyContent struct {
	Summary    *Summary       `json:"summary"`
	Quiz       *Quiz          `json:"quiz"`
	Flashcards *FlashcardDeck `json:"flashcards"`
}
