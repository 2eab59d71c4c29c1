package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxChunkSize = 4000
	DefaultMaxChunks    = 50
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunk splits text into at most maxChunks pieces of at most maxChunkSize
// runes. Paragraphs are packed greedily and joined by a blank line. A
// paragraph that does not fit on its own is packed sentence by sentence, and a
// sentence that does not fit is cut at maxChunkSize with its remainder
// dropped. Content past the last chunk is dropped. Non-positive limits fall
// back to the defaults.
func Chunk(text string, maxChunkSize, maxChunks int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxChunkSize {
		return []string{text}
	}

	c := &chunker{max: maxChunkSize, limit: maxChunks}
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if c.full() {
			break
		}
		if utf8.RuneCountInString(para) <= c.max {
			c.add(para, "\n\n")
			continue
		}

		c.flush()
		for _, s := range splitSentences(para) {
			if c.full() {
				break
			}
			if utf8.RuneCountInString(s) > c.max {
				c.flush()
				c.emit(truncateRunes(s, c.max))
				continue
			}
			c.add(s, " ")
		}
		c.flush()
	}
	c.flush()
	return c.chunks
}

// chunker accumulates pieces into a buffer and emits it when the next piece
// would overflow.
type chunker struct {
	max    int
	limit  int
	chunks []string
	buf    strings.Builder
	bufLen int
}

func (c *chunker) full() bool { return len(c.chunks) >= c.limit }

func (c *chunker) add(piece, sep string) {
	n := utf8.RuneCountInString(piece)
	if c.bufLen > 0 && c.bufLen+utf8.RuneCountInString(sep)+n > c.max {
		c.flush()
		if c.full() {
			return
		}
	}
	if c.bufLen > 0 {
		c.buf.WriteString(sep)
		c.bufLen += utf8.RuneCountInString(sep)
	}
	c.buf.WriteString(piece)
	c.bufLen += n
}

func (c *chunker) flush() {
	if c.bufLen == 0 {
		return
	}
	c.emit(c.buf.String())
	c.buf.Reset()
	c.bufLen = 0
}

func (c *chunker) emit(s string) {
	if c.full() {
		return
	}
	c.chunks = append(c.chunks, s)
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace or the
// end of the text. The terminator stays with its sentence.
func splitSentences(para string) []string {
	var out []string
	runes := []rune(para)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
