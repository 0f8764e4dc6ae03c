package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRenderer records the graphs it was asked to render and fails a set
// number of times before succeeding.
type fakeRenderer struct {
	graphs   []*Graph
	failures int
}

func (f *fakeRenderer) Render(_ context.Context, graph *Graph, _ string) error {
	f.graphs = append(f.graphs, graph)
	if f.failures > 0 {
		f.failures--
		return errors.New("render exploded")
	}
	return nil
}

func TestArgs(t *testing.T) {
	g := fullPlan().Build()

	args := Args(g, "out.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i bg.mp4",
		"-i top.png",
		"-i opening.mp3",
		"-filter_complex",
		"-map [with_captions]",
		"-map [narration]",
		"-c:v libx264",
		"-c:a aac",
		"-t 12.000",
		"-movflags +faststart",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	if args[len(args)-1] != "out.mp4" {
		t.Errorf("expected output path last, got %q", args[len(args)-1])
	}
}

func TestArgsSilentGraphDisablesAudio(t *testing.T) {
	g := basePlan().Build()

	joined := strings.Join(Args(g, "out.mp4"), " ")

	if !strings.Contains(joined, "-an") {
		t.Errorf("expected -an for silent graph: %s", joined)
	}
	if strings.Contains(joined, "-c:a") {
		t.Errorf("silent graph should not configure an audio codec: %s", joined)
	}
}

func TestArgsDirectStreamAudio(t *testing.T) {
	p := basePlan()
	p.Audio = AudioLayer{StoryPath: "story.mp3"}

	joined := strings.Join(Args(p.Build(), "out.mp4"), " ")

	if !strings.Contains(joined, "-map 1:a") {
		t.Errorf("expected direct stream map: %s", joined)
	}
}

func TestRenderWithFallbackSuccess(t *testing.T) {
	r := &fakeRenderer{}

	result, err := RenderWithFallback(context.Background(), r, fullPlan(), "out.mp4", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Degraded {
		t.Error("successful primary render must not be marked degraded")
	}
	if len(r.graphs) != 1 {
		t.Errorf("expected exactly one render, got %d", len(r.graphs))
	}
}

func TestRenderWithFallbackDisabledPropagatesError(t *testing.T) {
	r := &fakeRenderer{failures: 1}

	_, err := RenderWithFallback(context.Background(), r, fullPlan(), "out.mp4", false)
	if err == nil {
		t.Fatal("expected primary failure to propagate")
	}
	if len(r.graphs) != 1 {
		t.Errorf("fallback disabled must not retry, got %d renders", len(r.graphs))
	}
}

func TestRenderWithFallbackRetriesOnceWithMinimalGraph(t *testing.T) {
	r := &fakeRenderer{failures: 1}

	result, err := RenderWithFallback(context.Background(), r, fullPlan(), "out.mp4", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Error("fallback render must be marked degraded")
	}
	if len(r.graphs) != 2 {
		t.Fatalf("expected 2 renders, got %d", len(r.graphs))
	}
	if r.graphs[1].VideoOut != "base" {
		t.Errorf("retry should use the minimal graph, got video out %q", r.graphs[1].VideoOut)
	}
}

func TestRenderWithFallbackBothFailuresSurface(t *testing.T) {
	r := &fakeRenderer{failures: 2}

	_, err := RenderWithFallback(context.Background(), r, fullPlan(), "out.mp4", true)
	if err == nil {
		t.Fatal("expected error when both renders fail")
	}
	if len(r.graphs) != 2 {
		t.Errorf("expected exactly 2 renders (no further retries), got %d", len(r.graphs))
	}
}
