package background

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/clipsmith/clipsmith/internal/models"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"minecraft-parkour", "minecraft-parkour"},
		{"Minecraft", "minecraft-parkour"},
		{"subway_surfers", "subway-surfers"},
		{"Subway Surfers", "subway-surfers"},
		{"subway", "subway-surfers"},
		{"GTA5", "gta-ramps"},
		{"oddly satisfying", "soap-cutting"},
		{"soap", "soap-cutting"},
		{"", "minecraft-parkour"},
		{"something-unknown", "minecraft-parkour"},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.tag); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestChunkPlanCountAndSum(t *testing.T) {
	tests := []struct {
		totalSec  float64
		wantCount int
	}{
		{3.0, 1},
		{6.0, 1},
		{6.1, 2},
		{13.0, 3},
		{60.0, 10},
	}

	for _, tt := range tests {
		plan := ChunkPlan(tt.totalSec, ChunkSec)

		if len(plan) != tt.wantCount {
			t.Errorf("ChunkPlan(%.1f): expected %d chunks, got %d", tt.totalSec, tt.wantCount, len(plan))
		}

		var sum float64
		for _, length := range plan {
			if length <= 0 || length > ChunkSec+1e-9 {
				t.Errorf("ChunkPlan(%.1f): chunk length %.4f out of range", tt.totalSec, length)
			}
			sum += length
		}
		if math.Abs(sum-tt.totalSec) > 1e-9 {
			t.Errorf("ChunkPlan(%.1f): chunk lengths sum to %.6f", tt.totalSec, sum)
		}
	}
}

func TestChunkPlanInvalidInputs(t *testing.T) {
	if got := ChunkPlan(0, ChunkSec); got != nil {
		t.Errorf("expected nil plan for zero duration, got %v", got)
	}
	if got := ChunkPlan(10, 0); got != nil {
		t.Errorf("expected nil plan for zero chunk size, got %v", got)
	}
}

// fakeCatalog serves canned listings and clip bytes so the resolver can be
// exercised without a storage backend.
type fakeCatalog struct {
	clips map[string][]string
	data  []byte
	err   error

	mu        sync.Mutex
	downloads []string
}

func (f *fakeCatalog) List(_ context.Context, prefix string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.clips[prefix], nil
}

func (f *fakeCatalog) Download(_ context.Context, objectPath string) ([]byte, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, objectPath)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeCatalog) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func TestResolveSingleCategoryPicksCatalogClip(t *testing.T) {
	cat := &fakeCatalog{clips: map[string][]string{
		"backgrounds/minecraft-parkour/": {"backgrounds/minecraft-parkour/run01.mp4"},
	}}
	r := NewResolver(cat, nil)

	got := r.Resolve(context.Background(), "minecraft", 12.0, t.TempDir())

	if got.Mode != models.BackgroundModeSingle {
		t.Errorf("expected single mode, got %q", got.Mode)
	}
	if got.SourceURL != "https://cdn.example.com/backgrounds/minecraft-parkour/run01.mp4" {
		t.Errorf("unexpected source URL %q", got.SourceURL)
	}
	if got.TotalSec != 12.0 {
		t.Errorf("expected total 12.0, got %v", got.TotalSec)
	}
}

func TestResolveUnreachableCatalogUsesDefaultURL(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("connection refused")}
	r := NewResolver(cat, nil)

	got := r.Resolve(context.Background(), "subway", 10.0, t.TempDir())

	if got.Mode != models.BackgroundModeSingle {
		t.Errorf("expected single mode fallback, got %q", got.Mode)
	}
	if got.SourceURL != "https://cdn.clipsmith.dev/backgrounds/subway-surfers/default.mp4" {
		t.Errorf("expected category default URL, got %q", got.SourceURL)
	}
}

func TestFetchClipsDownloadsEachClipOnce(t *testing.T) {
	cat := &fakeCatalog{data: []byte("clip-bytes")}
	r := NewResolver(cat, nil)
	dir := t.TempDir()

	picks := []string{
		"backgrounds/gta-ramps/jump01.mp4",
		"backgrounds/gta-ramps/jump02.mp4",
		"backgrounds/gta-ramps/jump01.mp4",
	}

	locals, err := r.fetchClips(context.Background(), picks, dir)
	if err != nil {
		t.Fatalf("fetchClips failed: %v", err)
	}

	if len(locals) != 2 {
		t.Errorf("expected 2 distinct local clips, got %d: %v", len(locals), locals)
	}
	if len(cat.downloads) != 2 {
		t.Errorf("expected 2 downloads for 2 distinct clips, got %d: %v", len(cat.downloads), cat.downloads)
	}
	for clip, local := range locals {
		data, err := os.ReadFile(local)
		if err != nil {
			t.Errorf("clip %s not written to %s: %v", clip, local, err)
			continue
		}
		if string(data) != "clip-bytes" {
			t.Errorf("clip %s has wrong content %q", clip, data)
		}
	}
}

func TestFetchClipsDownloadErrorSurfaces(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("object not found")}
	r := NewResolver(cat, nil)

	if _, err := r.fetchClips(context.Background(), []string{"backgrounds/gta-ramps/jump01.mp4"}, t.TempDir()); err == nil {
		t.Fatal("expected download error to surface")
	}
}

func TestResolveEmptyCategoryUsesDefaultURL(t *testing.T) {
	cat := &fakeCatalog{clips: map[string][]string{}}
	r := NewResolver(cat, nil)

	got := r.Resolve(context.Background(), "", 5.0, t.TempDir())

	if got.SourceURL == "" {
		t.Error("expected a default URL, got empty source")
	}
	if got.Mode != models.BackgroundModeSingle {
		t.Errorf("expected single mode, got %q", got.Mode)
	}
}
