package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPrepareContentUnderLimit(t *testing.T) {
	got := PrepareContent("body", "\n\n--- Attachment: a.txt ---\nx", 100)
	if got != "body\n\n--- Attachment: a.txt ---\nx" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestSmartTruncateKeepsHeadAndTail(t *testing.T) {
	content := strings.Repeat("h", 500) + strings.Repeat("m", 1000) + strings.Repeat("t", 500)
	got := SmartTruncate(content, 1000)
	head, tail, ok := strings.Cut(got, TruncationMarker)
	if !ok {
		t.Fatalf("expected truncation marker")
	}
	if len(head) != 200 || strings.Trim(head, "h") != "" {
		t.Fatalf("unexpected head length %d", len(head))
	}
	if len(tail) != 800 || !strings.HasSuffix(tail, strings.Repeat("t", 500)) {
		t.Fatalf("unexpected tail length %d", len(tail))
	}
}

func TestSmartTruncateCountsRunes(t *testing.T) {
	content := strings.Repeat("é", 100)
	if got := SmartTruncate(content, 100); got != content {
		t.Fatalf("expected multibyte content at the limit to be kept")
	}
	got := SmartTruncate(strings.Repeat("é", 150), 100)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune")
	}
	if n := utf8.RuneCountInString(got) - utf8.RuneCountInString(TruncationMarker); n != 100 {
		t.Fatalf("expected 100 content runes, got %d", n)
	}
}
