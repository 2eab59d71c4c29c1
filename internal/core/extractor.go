package core

// Extraction is the generation-ready form of an upload. ImageDataURL is set
// only for images, in which case Text is ImageAnalysisInstruction.
type Extraction struct {
	Text         string
	ImageDataURL string
	SourceType   string
	MimeType     string
}

// ContentText is what gets stored on the Upload row.
func (e *Extraction) ContentText() string {
	if e.ImageDataURL != "" {
		return e.ImageDataURL
	}
	return e.Text
}

// DocumentExtractor turns raw upload bytes into an Extraction.
type DocumentExtractor interface {
	Extract(data []byte, mimeHint string) (*Extraction, error)
}
