package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestSplit_EmptyText(t *testing.T) {
	if got := Split("", DefaultConfig()); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
	if got := Split("  \r\n\t  ", DefaultConfig()); got != nil {
		t.Fatalf("want nil for whitespace-only text, got %v", got)
	}
}

func TestSplit_BelowMinimum(t *testing.T) {
	text := strings.Repeat("a", DefaultMinChars-1)
	if got := Split(text, DefaultConfig()); got != nil {
		t.Fatalf("want nil for short text, got %d chunks", len(got))
	}
}

func TestSplit_SingleChunkPassthrough(t *testing.T) {
	text := strings.Repeat("promo belanja hemat ", 25) // 500 chars
	got := Split(text, DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(got))
	}
	if got[0] != strings.TrimSpace(text) {
		t.Fatalf("single chunk must equal cleaned input")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := sentences(300)
	a := Split(text, DefaultConfig())
	b := Split(text, DefaultConfig())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input must produce identical chunks")
	}
}

func TestSplit_RespectsMaxChars(t *testing.T) {
	text := sentences(500)
	for i, c := range Split(text, DefaultConfig()) {
		if len(c) > DefaultMaxChars {
			t.Fatalf("chunk %d exceeds max: %d > %d", i, len(c), DefaultMaxChars)
		}
	}
}

func TestSplit_OverlapBound(t *testing.T) {
	cfg := DefaultConfig()
	chunks := Split(sentences(500), cfg)
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		if n := sharedEdge(chunks[i], chunks[i+1]); n > cfg.Overlap {
			t.Fatalf("chunks %d/%d share %d chars, overlap limit is %d", i, i+1, n, cfg.Overlap)
		}
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("promo belanja hemat ", 20)) // 399 chars
	text := para + "\n\n" + para + "\n\n" + para

	cfg := Config{MaxChars: 1000, MinChars: 300, Overlap: 50}
	chunks := Split(text, cfg)
	if len(chunks) < 2 {
		t.Fatalf("want at least 2 chunks, got %d", len(chunks))
	}
	if want := para + "\n\n" + para; chunks[0] != want {
		t.Fatalf("first chunk must end at paragraph break:\nwant %q\ngot  %q", want, chunks[0])
	}
}

func TestSplit_SentenceBreakFallback(t *testing.T) {
	// No paragraph or line breaks, so the sentence boundary must win over a
	// hard cut.
	a := strings.Repeat("a", 1100)
	b := strings.Repeat("b", 400)
	chunks := Split(a+". "+b, DefaultConfig())
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if want := a + "."; chunks[0] != want {
		t.Fatalf("first chunk must end at sentence boundary, got %d chars ending %q",
			len(chunks[0]), chunks[0][len(chunks[0])-5:])
	}
}

func TestSplit_FinalShortSliceKept(t *testing.T) {
	a := strings.Repeat("a", 1100)
	b := strings.Repeat("b", 150)
	cfg := DefaultConfig()
	chunks := Split(a+". "+b, cfg)
	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[len(chunks)-1], b) {
		t.Fatal("trailing content lost")
	}
	if len(chunks[len(chunks)-1]) >= cfg.MinChars {
		t.Fatalf("test setup broken: final slice not short (%d chars)", len(chunks[len(chunks)-1]))
	}
}

func TestSplit_NormalizesLineEndings(t *testing.T) {
	base := strings.TrimSpace(strings.Repeat("promo belanja hemat ", 20))
	crlf := base[:100] + "\r\n" + base[100:]
	unix := base[:100] + "\n" + base[100:]
	if got, want := Split(crlf, DefaultConfig()), Split(unix, DefaultConfig()); !reflect.DeepEqual(got, want) {
		t.Fatalf("CRLF text must chunk identically to LF text:\n%v\n%v", got, want)
	}
}

func TestSplit_ProgressWithOversizedOverlap(t *testing.T) {
	text := strings.Repeat("abcd", 100) // 400 chars, no separators
	cfg := Config{MaxChars: 100, MinChars: 20, Overlap: 200}
	chunks := Split(text, cfg)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, c := range chunks {
		if len(c) > cfg.MaxChars {
			t.Fatalf("chunk %d exceeds max: %d", i, len(c))
		}
	}
	if last := chunks[len(chunks)-1]; !strings.HasSuffix(text, last) {
		t.Fatal("final chunk must cover the end of the text")
	}
}

func TestSplit_CoversEveryWord(t *testing.T) {
	text := sentences(300)
	joined := strings.Join(Split(text, DefaultConfig()), " ")
	for i := 0; i < 300; i++ {
		w := fmt.Sprintf("kata%04d", i)
		if !strings.Contains(joined, w) {
			t.Fatalf("word %s missing from chunk output", w)
		}
	}
}

// sentences builds n distinct words grouped into ten-word sentences.
func sentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 && i%10 == 0 {
			b.WriteString(". ")
		} else if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "kata%04d", i)
	}
	b.WriteByte('.')
	return b.String()
}

// sharedEdge returns the length of the longest suffix of a that is also a
// prefix of b.
func sharedEdge(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for n := max; n > 0; n-- {
		if a[len(a)-n:] == b[:n] {
			return n
		}
	}
	return 0
}
