package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

// TestBannerPreview prints the banner so `go test ./pkg/ui -run TestBannerPreview` shows it.
func TestBannerPreview(t *testing.T) {
	fmt.Println(Banner())
}

func TestBannerIncludesWordmark(t *testing.T) {
	banner := Banner()
	if !strings.Contains(banner, "showpagemap") {
		t.Fatalf("banner missing showpagemap wordmark: %q", banner)
	}
	if !strings.Contains(banner, "where your pages live") {
		t.Fatalf("banner missing tagline")
	}
	lines := strings.Split(strings.TrimSpace(banner), "\n")
	if len(lines) < 8 {
		t.Fatalf("expected multi-line banner, got %d lines", len(lines))
	}
}

func TestBannerUsesGradientColors(t *testing.T) {
	banner := Banner()
	colors := []string{bold, frostBlue, steelBlue, cobalt, tealGreen, mint, honey, ember}
	for _, color := range colors {
		if !strings.Contains(banner, color) {
			t.Fatalf("banner missing color code %q", color)
		}
	}
}

func TestLettersHaveEvenRows(t *testing.T) {
	for i, letter := range [][]string{letterP, letterA, letterG, letterE, letterM} {
		if len(letter) != len(letterP) {
			t.Fatalf("letter %d has %d rows, want %d", i, len(letter), len(letterP))
		}
		width := utf8.RuneCountInString(letter[0])
		for row, s := range letter {
			if got := utf8.RuneCountInString(s); got != width {
				t.Fatalf("letter %d row %d is %d wide, want %d", i, row, got, width)
			}
		}
	}
}

func TestEnabled(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if Enabled(f, false) {
		t.Fatalf("regular file treated as a terminal")
	}
	if Enabled(nil, false) {
		t.Fatalf("nil file should disable the banner")
	}
	if Enabled(os.Stdout, true) {
		t.Fatalf("disabled banner still enabled")
	}
}
