package ingestion_engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/Studia/internal/core"
	"github.com/markdave123-py/Studia/internal/models"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var _ core.DocumentExtractor = (*Extractor)(nil)

// Extractor normalizes raw upload bytes. It holds no state.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract turns data into generation-ready content. When mimeHint is empty or
// application/octet-stream the type is sniffed from the bytes.
func (e *Extractor) Extract(data []byte, mimeHint string) (*core.Extraction, error) {
	mt := resolveMime(data, mimeHint)

	switch {
	case strings.HasPrefix(mt, "image/"):
		return &core.Extraction{
			Text:         core.ImageAnalysisInstruction,
			ImageDataURL: "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data),
			SourceType:   models.SourceTypeImage,
			MimeType:     mt,
		}, nil

	case mt == mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return nil, &core.ExtractionError{Kind: core.ErrPdfExtraction, MimeType: mt, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return nil, &core.ExtractionError{Kind: core.ErrPdfExtraction, MimeType: mt, Err: fmt.Errorf("no text layer")}
		}
		return &core.Extraction{Text: text, SourceType: models.SourceTypePDF, MimeType: mt}, nil

	case mt == mimeDOCX:
		text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
		if err != nil {
			return nil, &core.ExtractionError{Kind: core.ErrInvalidFileFormat, MimeType: mt, Err: err}
		}
		return &core.Extraction{Text: strings.TrimSpace(text), SourceType: models.SourceTypeDOCX, MimeType: mt}, nil
	}

	if !utf8.Valid(data) {
		return nil, &core.ExtractionError{Kind: core.ErrInvalidFileFormat, MimeType: mt, Err: fmt.Errorf("content is not valid UTF-8")}
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return &core.Extraction{Text: text, SourceType: models.SourceTypeTXT, MimeType: mt}, nil
}

// resolveMime returns the bare media type, sniffing when the hint is useless.
func resolveMime(data []byte, hint string) string {
	mt := strings.ToLower(strings.TrimSpace(hint))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = mimetype.Detect(data).String()
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
	}
	return mt
}

// extractPDF reads the text layer of every page. The parser panics on some
// malformed inputs, so panics are turned into errors.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
