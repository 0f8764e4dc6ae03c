package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// Renderer turns a composition graph into an output file. Abstracting the
// engine behind an interface lets a fake drive component tests without
// invoking real media tooling.
type Renderer interface {
	Render(ctx context.Context, graph *Graph, outputPath string) error
}

// FFmpegRenderer translates a Graph into one ffmpeg invocation.
type FFmpegRenderer struct{}

var _ Renderer = (*FFmpegRenderer)(nil)

func NewFFmpegRenderer() *FFmpegRenderer {
	return &FFmpegRenderer{}
}

func (r *FFmpegRenderer) Render(ctx context.Context, graph *Graph, outputPath string) error {
	args := Args(graph, outputPath)

	log.Printf("[Render] ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg render failed: %w", err)
	}

	return nil
}

// Args builds the ffmpeg argument list for a graph. Exposed separately so
// tests can assert the invocation without running anything.
func Args(graph *Graph, outputPath string) []string {
	var args []string

	for _, in := range graph.Inputs {
		args = append(args, in.Args...)
		args = append(args, "-i", in.Path)
	}

	if len(graph.Chains) > 0 {
		args = append(args, "-filter_complex", graph.FilterComplex())
		args = append(args, "-map", "["+graph.VideoOut+"]")
	}

	switch {
	case graph.AudioOut == "":
		args = append(args, "-an")
	case strings.Contains(graph.AudioOut, ":"):
		// direct stream reference, e.g. "1:a"
		args = append(args, "-map", graph.AudioOut)
	default:
		args = append(args, "-map", "["+graph.AudioOut+"]")
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
	)

	if graph.AudioOut != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	}

	args = append(args,
		"-t", fmt.Sprintf("%.3f", graph.DurationSec),
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)

	return args
}

// RenderWithFallback runs the primary render and, when the caller has
// explicitly enabled degraded mode, retries exactly once with the minimal
// graph (background + existing audio, no banner or captions). Without the
// opt-in the primary failure propagates.
func RenderWithFallback(ctx context.Context, renderer Renderer, plan *Plan, outputPath string, degradedEnabled bool) (models.RenderResult, error) {
	err := renderer.Render(ctx, plan.Build(), outputPath)
	if err == nil {
		return models.RenderResult{OutputPath: outputPath}, nil
	}

	if !degradedEnabled {
		return models.RenderResult{}, err
	}

	log.Printf("[Render] primary render failed, retrying with minimal graph: %v", err)

	if retryErr := renderer.Render(ctx, plan.Minimal().Build(), outputPath); retryErr != nil {
		return models.RenderResult{}, fmt.Errorf("degraded render failed: %w (primary: %v)", retryErr, err)
	}

	return models.RenderResult{OutputPath: outputPath, Degraded: true}, nil
}
