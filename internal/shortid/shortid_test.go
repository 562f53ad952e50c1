package shortid

import (
	"strings"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{1, 5, 12, 64} {
		id := Generate(length)
		if len(id) != length {
			t.Fatalf("expected length %d, got %d (%q)", length, len(id), id)
		}
		for _, r := range id {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("unexpected symbol %q in %q", r, id)
			}
		}
	}
}

func TestGenerateDefaultsLength(t *testing.T) {
	if got := len(Generate(0)); got != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, got)
	}
	if got := len(Generate(-3)); got != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, got)
	}
	if got := len(New()); got != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, got)
	}
}

func TestAlphabetExcludesAmbiguousSymbols(t *testing.T) {
	if len(Alphabet) != 32 {
		t.Fatalf("expected 32 symbols, got %d", len(Alphabet))
	}
	for _, r := range "ILOU" {
		if strings.ContainsRune(Alphabet, r) {
			t.Fatalf("alphabet must not contain %q", r)
		}
	}
}

func TestGenerateCoversAlphabet(t *testing.T) {
	seen := make(map[rune]bool)
	for i := 0; i < 200; i++ {
		for _, r := range Generate(32) {
			seen[r] = true
		}
	}
	if len(seen) != len(Alphabet) {
		t.Fatalf("expected every symbol to appear, saw %d of %d", len(seen), len(Alphabet))
	}
}
