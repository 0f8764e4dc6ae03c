package fonts

import (
	"os"
	"path/filepath"
	"testing"
)

func setupFontsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0644); err != nil {
			t.Fatalf("failed to seed fonts dir: %v", err)
		}
	}
	return dir
}

func TestResolveMatchesFamilyCaseInsensitively(t *testing.T) {
	dir := setupFontsDir(t, "NotoSans-Bold.ttf", "Roboto-Regular.ttf")
	r := NewResolver(dir, "default.ttf")

	got, ok := r.Resolve("noto sans")
	if !ok {
		t.Fatal("expected a match for noto sans")
	}
	if filepath.Base(got) != "NotoSans-Bold.ttf" {
		t.Errorf("expected NotoSans-Bold.ttf, got %q", got)
	}
}

func TestResolveIgnoresNonFontFiles(t *testing.T) {
	dir := setupFontsDir(t, "NotoSans.txt", "readme.md")
	r := NewResolver(dir, "default.ttf")

	got, ok := r.Resolve("Noto Sans")
	if ok {
		t.Errorf("expected no match among non-font files, got %q", got)
	}
	if got != "default.ttf" {
		t.Errorf("expected default fallback, got %q", got)
	}
}

func TestResolveMissingDirFallsBack(t *testing.T) {
	r := NewResolver("/nonexistent/fonts", "default.ttf")

	got, ok := r.Resolve("Noto Sans")
	if ok || got != "default.ttf" {
		t.Errorf("expected default fallback for missing dir, got %q (ok=%v)", got, ok)
	}
}

func TestResolveEmptyFamilyUsesDefault(t *testing.T) {
	r := NewResolver(t.TempDir(), "default.ttf")

	got, ok := r.Resolve("")
	if ok || got != "default.ttf" {
		t.Errorf("expected default for empty family, got %q (ok=%v)", got, ok)
	}
}
