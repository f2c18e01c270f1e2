package chunks

import (
	"strings"
	"testing"
)

func TestSplit_PacksSentences(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence."

	got := Split(text, 35)

	if len(got) != 2 {
		t.Fatalf("got %d chunks: %v", len(got), got)
	}
	if got[0] != "First sentence. Second sentence." {
		t.Errorf("chunk[0] = %q", got[0])
	}
	if got[1] != "Third sentence." {
		t.Errorf("chunk[1] = %q", got[1])
	}
}

func TestSplit_RespectsMaxSize(t *testing.T) {
	text := strings.Repeat("Some sentence here. ", 50)

	for _, c := range Split(text, 60) {
		if len(c) > 60 {
			t.Fatalf("chunk exceeds max size: %d chars", len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Fatal("empty chunk produced")
		}
	}
}

func TestSplit_HardCutsOversizedSentence(t *testing.T) {
	text := strings.Repeat("x", 25)

	got := Split(text, 10)

	if len(got) != 3 {
		t.Fatalf("got %d chunks: %v", len(got), got)
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Errorf("chunk exceeds max size: %q", c)
		}
	}
}

func TestSplit_NewlinesAreBoundaries(t *testing.T) {
	got := Split("heading\nbody text here", 100)

	if len(got) != 1 {
		t.Fatalf("got %d chunks: %v", len(got), got)
	}
	if got[0] != "heading body text here" {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplit_DecimalsStayTogether(t *testing.T) {
	got := Split("Version 1.5 shipped. Next sentence.", 100)

	if len(got) != 1 {
		t.Fatalf("got %d chunks: %v", len(got), got)
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 100); got != nil {
		t.Errorf("Split(\"\") = %v", got)
	}
	if got := Split("   \n  ", 100); got != nil {
		t.Errorf("Split(whitespace) = %v", got)
	}
}
