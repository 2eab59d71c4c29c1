package ingestion_engine

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		max  int
		want []string
	}{
		{name: "empty", text: "", size: 10, max: 5, want: nil},
		{name: "whitespace only", text: " \n\n\t ", size: 10, max: 5, want: nil},
		{name: "short input is one chunk", text: "Hello there.\n\nBye.", size: 100, max: 5, want: []string{"Hello there.\n\nBye."}},
		{name: "exactly max size", text: "abcdefghij", size: 10, max: 5, want: []string{"abcdefghij"}},
		{name: "paragraphs packed", text: "aaaa\n\nbbbb\n\ncccc", size: 10, max: 5, want: []string{"aaaa\n\nbbbb", "cccc"}},
		{name: "sentence fallback", text: "One two. Three four! Five six?", size: 12, max: 5, want: []string{"One two.", "Three four!", "Five six?"}},
		{name: "hard truncate", text: "abcdefghijklmnop", size: 5, max: 5, want: []string{"abcde"}},
		{name: "chunk cap", text: "aa\n\nbb\n\ncc\n\ndd", size: 3, max: 2, want: []string{"aa", "bb"}},
		{name: "defaults on non-positive", text: "tiny", size: 0, max: -1, want: []string{"tiny"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.size, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("len: want=%d got=%d (%q)", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("chunk %d: want=%q got=%q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestChunkNineThousandCharacters(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 2998),
		strings.Repeat("b", 2998),
		strings.Repeat("c", 3000),
	}
	text := strings.Join(paras, "\n\n")
	if len(text) != 9000 {
		t.Fatalf("fixture length: got %d", len(text))
	}

	got := Chunk(text, 4000, 50)
	if len(got) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(got))
	}
	for i, c := range got {
		if utf8.RuneCountInString(c) > 4000 {
			t.Fatalf("chunk %d too long: %d", i, utf8.RuneCountInString(c))
		}
	}
	if joined := strings.Join(got, "\n\n"); joined != text {
		t.Fatal("joined chunks do not reproduce the input")
	}
}

func TestChunkSentencesAfterOversizedParagraph(t *testing.T) {
	long := strings.Repeat("word ", 5) + "end. " + strings.Repeat("more ", 5) + "stop."
	text := "intro\n\n" + long + "\n\noutro"

	got := Chunk(text, 30, 10)
	want := []string{"intro", "word word word word word end.", "more more more more more stop.", "outro"}
	if len(got) != len(want) {
		t.Fatalf("want=%q got=%q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d: want=%q got=%q", i, want[i], got[i])
		}
	}
}

func TestChunkMultiByteRunes(t *testing.T) {
	text := strings.Repeat("é", 25)
	got := Chunk(text, 10, 5)
	if len(got) != 1 {
		t.Fatalf("want 1 truncated chunk, got %d", len(got))
	}
	if got[0] != strings.Repeat("é", 10) {
		t.Fatalf("want 10 runes, got %q", got[0])
	}
	if !utf8.ValidString(got[0]) {
		t.Fatal("chunk is not valid UTF-8")
	}
}

// randomDocument builds paragraphs of short sentences so no sentence needs
// truncation at the given size.
func randomDocument(r *rand.Rand, maxSentence int) string {
	words := []string{"alpha", "beta", "gamma", "delta", "épsilon", "zeta", "θήτα", "iota"}
	var paras []string
	for p := 0; p < 1+r.Intn(30); p++ {
		var sentences []string
		for s := 0; s < 1+r.Intn(12); s++ {
			var b strings.Builder
			for w := 0; w < 1+r.Intn(8); w++ {
				next := words[r.Intn(len(words))]
				if utf8.RuneCountInString(b.String())+len(next)+2 > maxSentence {
					break
				}
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(next)
			}
			b.WriteString([]string{".", "!", "?"}[r.Intn(3)])
			sentences = append(sentences, b.String())
		}
		paras = append(paras, strings.Join(sentences, " "))
	}
	return strings.Join(paras, "\n\n")
}

func TestChunkProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 300; iter++ {
		size := 40 + r.Intn(400)
		maxChunks := 1 + r.Intn(20)
		text := randomDocument(r, size)

		got := Chunk(text, size, maxChunks)

		if len(got) > maxChunks {
			t.Fatalf("iter %d: %d chunks > cap %d", iter, len(got), maxChunks)
		}
		if strings.TrimSpace(text) != "" && len(got) == 0 {
			t.Fatalf("iter %d: non-empty text produced no chunks", iter)
		}
		for i, c := range got {
			if n := utf8.RuneCountInString(c); n > size {
				t.Fatalf("iter %d chunk %d: %d runes > %d", iter, i, n, size)
			}
		}

		// word order is preserved: the chunks read back as a prefix of the input
		gotWords := strings.Fields(strings.Join(got, " "))
		wantWords := strings.Fields(text)
		if len(gotWords) > len(wantWords) {
			t.Fatalf("iter %d: chunks hold more words than the input", iter)
		}
		for i := range gotWords {
			if gotWords[i] != wantWords[i] {
				t.Fatalf("iter %d: word %d: want=%q got=%q", iter, i, wantWords[i], gotWords[i])
			}
		}
		if len(got) < maxChunks && len(gotWords) != len(wantWords) {
			t.Fatalf("iter %d: content dropped below the chunk cap", iter)
		}
	}
}

func FuzzChunk(f *testing.F) {
	f.Add("Hello world. How are you?\n\nFine!", 10, 3)
	f.Add(strings.Repeat("x", 100), 7, 4)
	f.Add("ünïcödé. ßtraße!\n\n\n日本語のテキスト。", 4, 10)
	f.Add("", 1, 1)

	f.Fuzz(func(t *testing.T, text string, size, maxChunks int) {
		if size > 10000 || maxChunks > 1000 {
			t.Skip()
		}
		got := Chunk(text, size, maxChunks)

		wantSize, wantMax := size, maxChunks
		if wantSize <= 0 {
			wantSize = DefaultMaxChunkSize
		}
		if wantMax <= 0 {
			wantMax = DefaultMaxChunks
		}
		if len(got) > wantMax {
			t.Fatalf("%d chunks > %d", len(got), wantMax)
		}
		for _, c := range got {
			if utf8.RuneCountInString(c) > wantSize {
				t.Fatalf("chunk of %d runes > %d", utf8.RuneCountInString(c), wantSize)
			}
			if utf8.ValidString(text) && !utf8.ValidString(c) {
				t.Fatalf("invalid UTF-8 chunk from valid input: %q", c)
			}
			if strings.TrimSpace(c) == "" {
				t.Fatalf("blank chunk from %q", text)
			}
		}
	})
}
