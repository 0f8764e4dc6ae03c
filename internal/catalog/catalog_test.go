package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListReturnsPrefixedPathsAndSkipsFolders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/list/clips" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var body struct {
			Prefix string `json:"prefix"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body.Prefix != "backgrounds/minecraft-parkour/" {
			t.Errorf("unexpected prefix %q", body.Prefix)
		}

		json.NewEncoder(w).Encode([]map[string]string{
			{"name": "run01.mp4", "id": "obj-1"},
			{"name": "run02.mp4", "id": "obj-2"},
			{"name": "subfolder", "id": ""}, // folder placeholder
		})
	}))
	defer server.Close()

	c := New(server.URL, "test-key", "clips")

	got, err := c.List(context.Background(), "backgrounds/minecraft-parkour/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{
		"backgrounds/minecraft-parkour/run01.mp4",
		"backgrounds/minecraft-parkour/run02.mp4",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d paths, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestListErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, "test-key", "missing")

	if _, err := c.List(context.Background(), "backgrounds/"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestPublicURL(t *testing.T) {
	c := New("https://project.supabase.co", "key", "clips")

	got := c.PublicURL("backgrounds/minecraft-parkour/run01.mp4")
	want := "https://project.supabase.co/storage/v1/object/public/clips/backgrounds/minecraft-parkour/run01.mp4"
	if got != want {
		t.Errorf("PublicURL = %q, want %q", got, want)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	retryable := []int{408, 429, 502, 503, 504}
	for _, status := range retryable {
		if !isRetryableStatus(status) {
			t.Errorf("expected status %d to be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 404, 500} {
		if isRetryableStatus(status) {
			t.Errorf("expected status %d to not be retryable", status)
		}
	}
}
