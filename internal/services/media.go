package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// Canonical frame — 1080x1920 portrait at 30fps. Every background segment is
// normalized to this before composition.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
	FrameFPS    = 30
)

// minEffectiveSec floors the silence-trimmed narration length so time-boxed
// overlays always stay visible for at least a blink.
const minEffectiveSec = 0.6

// ---------------------------------------------------------------------------
// MediaService — ffmpeg/ffprobe toolbox
//
// Probing, silence analysis, and montage segment preparation all shell out to
// the ffmpeg binaries. Each call takes the caller's context so the worker can
// bound it with an explicit timeout.
// ---------------------------------------------------------------------------

type MediaService struct {
	tempDir string
}

func NewMediaService(tempDir string) *MediaService {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &MediaService{tempDir: tempDir}
}

// ProbeDuration returns the container duration of a local file or URL in
// seconds.
func (s *MediaService) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	durationSec, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return durationSec, nil
}

// DetectSilenceStarts runs silencedetect over an audio file and returns every
// silence start offset it reports, in order.
func (s *MediaService) DetectSilenceStarts(ctx context.Context, path string, noiseDB, minSilenceSec float64) ([]float64, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseDB, minSilenceSec)

	args := []string{
		"-i", path,
		"-af", filter,
		"-f", "null",
		"-",
	}

	// silencedetect logs to stderr
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg silencedetect failed: %w", err)
	}

	var starts []float64
	for _, line := range strings.Split(stderr.String(), "\n") {
		idx := strings.Index(line, "silence_start:")
		if idx < 0 {
			continue
		}
		val := strings.TrimSpace(line[idx+len("silence_start:"):])
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			starts = append(starts, f)
		}
	}

	return starts, nil
}

// EffectiveDuration applies the trailing-silence rule: when the last detected
// silence starts between (raw - window - minSilence) and (raw - minSilence),
// that offset is the true end of speech; otherwise the raw duration stands.
// The result is floored at minEffectiveSec.
func EffectiveDuration(raw float64, silenceStarts []float64, window, minSilenceSec float64) float64 {
	effective := raw

	if len(silenceStarts) > 0 {
		last := silenceStarts[len(silenceStarts)-1]
		lo := raw - window - minSilenceSec
		hi := raw - minSilenceSec
		if last >= lo && last <= hi {
			effective = last
		}
	}

	if effective < minEffectiveSec {
		effective = minEffectiveSec
	}

	return effective
}

// AnalyzeNarration measures a narration clip's raw and effective durations.
// Silence analysis failures degrade to effective = raw rather than erroring:
// a slightly long overlay beats a dead job.
func (s *MediaService) AnalyzeNarration(ctx context.Context, path string, noiseDB, minSilenceSec, windowSec float64) (models.AudioAsset, error) {
	raw, err := s.ProbeDuration(ctx, path)
	if err != nil {
		return models.AudioAsset{}, fmt.Errorf("probe narration duration: %w", err)
	}

	starts, err := s.DetectSilenceStarts(ctx, path, noiseDB, minSilenceSec)
	if err != nil {
		log.Printf("[Media] silence analysis failed, using raw duration: %v", err)
		starts = nil
	}

	effective := EffectiveDuration(raw, starts, windowSec, minSilenceSec)
	if effective != raw {
		log.Printf("[Media] trimmed trailing silence: raw=%.2fs effective=%.2fs (%s)",
			raw, effective, filepath.Base(path))
	}

	return models.AudioAsset{Path: path, RawSec: raw, EffectiveSec: effective}, nil
}

// CutSegment cuts lengthSec of video from src starting at startSec and
// normalizes it to the canonical frame and rate. src may be a URL; the audio
// track is dropped since narration is layered separately.
func (s *MediaService) CutSegment(ctx context.Context, src string, startSec, lengthSec float64, outputPath string) error {
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d",
		FrameWidth, FrameHeight, FrameWidth, FrameHeight, FrameFPS)

	args := []string{
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-i", src,
		"-t", fmt.Sprintf("%.3f", lengthSec),
		"-vf", vf,
		"-an",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg cut segment failed (src=%s): %w", src, err)
	}

	return nil
}

// ConcatSegments joins normalized segments into one track without
// re-encoding. Segments must share codec parameters, which CutSegment
// guarantees.
func (s *MediaService) ConcatSegments(ctx context.Context, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}

	listPath := outputPath + ".txt"
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}

	for _, path := range segmentPaths {
		fmt.Fprintf(f, "file '%s'\n", path)
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}

	return nil
}

// TempFile returns a path inside the service's temp directory.
func (s *MediaService) TempFile(elem ...string) string {
	return filepath.Join(append([]string{s.tempDir}, elem...)...)
}

// Cleanup removes temporary files and directories.
func (s *MediaService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.RemoveAll(path)
	}
}
