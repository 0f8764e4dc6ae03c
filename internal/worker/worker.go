package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipsmith/clipsmith/internal/align"
	"github.com/clipsmith/clipsmith/internal/background"
	"github.com/clipsmith/clipsmith/internal/captions"
	"github.com/clipsmith/clipsmith/internal/catalog"
	"github.com/clipsmith/clipsmith/internal/compose"
	"github.com/clipsmith/clipsmith/internal/fonts"
	"github.com/clipsmith/clipsmith/internal/jobstore"
	"github.com/clipsmith/clipsmith/internal/layout"
	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/queue"
	"github.com/clipsmith/clipsmith/internal/services"
)

// Every external call gets its own deadline so one stalled collaborator
// can't wedge a worker goroutine forever.
const (
	ttsTimeout        = 90 * time.Second
	transcribeTimeout = 120 * time.Second
	analyzeTimeout    = 60 * time.Second
	backgroundTimeout = 5 * time.Minute
	renderTimeout     = 10 * time.Minute
	uploadTimeout     = 3 * time.Minute
)

// Progress checkpoints reported to the job store.
const (
	progressSynthesized = 20
	progressAnalyzed    = 35
	progressAligned     = 55
	progressComposed    = 70
	progressRendered    = 85
)

// openingMarker separates the opening narration from the story proper inside
// the submitted story text. Without a marker the title is the opening.
const openingMarker = "---"

// captionFontFamily is the family captions and the banner are set in; the
// resolver falls back to the default file when it isn't installed.
const captionFontFamily = "Noto Sans"

// Transcriber produces word-level timestamps for narration audio, biased by
// the authored script.
type Transcriber interface {
	TranscribeWithScript(ctx context.Context, audioData []byte, script string) ([]models.WordTimestamp, error)
}

// Options carries the tunables the pipeline stages need.
type Options struct {
	TranscriptionEnabled  bool
	MatchRatioThreshold   float64
	SilenceNoiseDB        float64
	MinSilenceSec         float64
	TrailingWindowSec     float64
	DegradedRenderEnabled bool
	BannerTopImagePath    string
	BannerBottomImagePath string
}

type Worker struct {
	queue       *queue.Queue
	jobs        *jobstore.Store
	catalog     *catalog.Client
	tts         services.TTSService
	transcriber Transcriber // may be nil when transcription is disabled
	media       *services.MediaService
	backgrounds *background.Resolver
	renderer    compose.Renderer
	fonts       *fonts.Resolver
	opts        Options
}

func New(
	q *queue.Queue,
	jobs *jobstore.Store,
	cat *catalog.Client,
	ttsSvc services.TTSService,
	transcriber Transcriber,
	mediaSvc *services.MediaService,
	backgrounds *background.Resolver,
	renderer compose.Renderer,
	fontResolver *fonts.Resolver,
	opts Options,
) *Worker {
	return &Worker{
		queue:       q,
		jobs:        jobs,
		catalog:     cat,
		tts:         ttsSvc,
		transcriber: transcriber,
		media:       mediaSvc,
		backgrounds: backgrounds,
		renderer:    renderer,
		fonts:       fontResolver,
		opts:        opts,
	}
}

// Start begins processing video jobs with the given concurrency.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing: %v", err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing job %s (title: %q)", job.ID, job.Request.Title)
			if depth, err := w.queue.Length(ctx); err == nil && depth > 0 {
				log.Printf("Queue backlog: %d jobs waiting", depth)
			}

			if outputURL, err := w.renderVideo(ctx, job); err != nil {
				log.Printf("Job %s failed: %v", job.ID, err)
				w.jobs.Fail(ctx, job.ID, err.Error())
			} else {
				log.Printf("Job %s completed: %s", job.ID, outputURL)
				w.jobs.Complete(ctx, job.ID, outputURL)
			}
		}
	}
}

// segment is one synthesized narration track plus its measured durations.
type segment struct {
	asset models.AudioAsset
	data  []byte
	text  string
}

// renderVideo runs the whole pipeline for one job and returns the public URL
// of the finished artifact. All intermediates live in a workspace namespaced
// by the job id and are removed on the way out, success or not.
func (w *Worker) renderVideo(ctx context.Context, job *queue.Job) (string, error) {
	req := job.Request

	workDir := w.media.TempFile(job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job workspace: %w", err)
	}
	defer w.media.Cleanup(workDir)

	openingText, storyText := SplitStory(req.Title, req.StoryText)

	// ── Narration: synthesize + measure each segment ────────────────────
	opening := w.prepareSegment(ctx, "opening", openingText, req.VoiceID, workDir)
	story := w.prepareSegment(ctx, "story", storyText, req.VoiceID, workDir)
	w.jobs.SetProgress(ctx, job.ID, progressSynthesized)

	var openingSec, storySec float64
	if opening != nil {
		openingSec = opening.asset.EffectiveSec
	}
	if story != nil {
		storySec = story.asset.EffectiveSec
	}

	totalSec := openingSec + storySec
	if totalSec <= 0 {
		// Both segments failed to synthesize: render a silent video sized
		// from the script so the job still produces something diagnosable.
		totalSec = float64(services.EstimateDurationMs(req.Title+" "+req.StoryText, 1.0)) / 1000.0
		log.Printf("[Worker] no narration for job %s, using estimated duration %.1fs", job.ID, totalSec)
	}
	w.jobs.SetProgress(ctx, job.ID, progressAnalyzed)

	// ── Background and caption alignment are independent; run both ──────
	var (
		selection models.BackgroundSelection
		words     []models.WordTimestamp
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bgCtx, cancel := context.WithTimeout(gctx, backgroundTimeout)
		defer cancel()
		selection = w.backgrounds.Resolve(bgCtx, req.BackgroundCategory, totalSec, workDir)
		return nil
	})

	g.Go(func() error {
		if story == nil {
			return nil
		}
		words = w.alignCaptions(gctx, story)
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	w.jobs.SetProgress(ctx, job.ID, progressAligned)

	// ── Caption track ────────────────────────────────────────────────────
	captionPath := ""
	if len(words) > 0 {
		captionPath = filepath.Join(workDir, "captions.ass")
		if err := captions.WriteTrack(words, captionPath, openingSec, captions.Style{FontName: captionFontFamily}); err != nil {
			log.Printf("[Worker] caption track failed, rendering without captions: %v", err)
			captionPath = ""
		}
	}

	// ── Composition plan ─────────────────────────────────────────────────
	plan := w.buildPlan(req, selection, opening, story, captionPath, openingSec, totalSec)
	w.jobs.SetProgress(ctx, job.ID, progressComposed)

	// ── Render ───────────────────────────────────────────────────────────
	outputPath := filepath.Join(workDir, "final.mp4")

	renderCtx, cancelRender := context.WithTimeout(ctx, renderTimeout)
	defer cancelRender()

	result, err := compose.RenderWithFallback(renderCtx, w.renderer, plan, outputPath, w.opts.DegradedRenderEnabled)
	if err != nil {
		return "", fmt.Errorf("render failed: %w", err)
	}
	if result.Degraded {
		log.Printf("[Worker] job %s rendered via degraded fallback graph", job.ID)
	}
	w.jobs.SetProgress(ctx, job.ID, progressRendered)

	// ── Publish ──────────────────────────────────────────────────────────
	objectPath := fmt.Sprintf("renders/%s/final.mp4", job.ID)

	uploadCtx, cancelUpload := context.WithTimeout(ctx, uploadTimeout)
	defer cancelUpload()

	if err := w.catalog.UploadFile(uploadCtx, objectPath, result.OutputPath, "video/mp4"); err != nil {
		return "", fmt.Errorf("failed to upload final video: %w", err)
	}

	return w.catalog.PublicURL(objectPath), nil
}

// prepareSegment synthesizes one narration segment and measures its raw and
// effective durations. Synthesis failure means the segment is simply absent
// (silence, no overlay); probe failure degrades to an estimated duration.
func (w *Worker) prepareSegment(ctx context.Context, name, text, voiceID, workDir string) *segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ttsCtx, cancel := context.WithTimeout(ctx, ttsTimeout)
	defer cancel()

	resp, err := w.tts.GenerateSpeech(ttsCtx, text, voiceID)
	if err != nil {
		log.Printf("[Worker] %s synthesis failed, treating segment as absent: %v", name, err)
		return nil
	}

	path := filepath.Join(workDir, name+".mp3")
	if err := os.WriteFile(path, resp.AudioData, 0644); err != nil {
		log.Printf("[Worker] cannot write %s audio, treating segment as absent: %v", name, err)
		return nil
	}

	analyzeCtx, cancelAnalyze := context.WithTimeout(ctx, analyzeTimeout)
	defer cancelAnalyze()

	asset, err := w.media.AnalyzeNarration(analyzeCtx, path, w.opts.SilenceNoiseDB, w.opts.MinSilenceSec, w.opts.TrailingWindowSec)
	if err != nil {
		estimated := float64(resp.DurationMs) / 1000.0
		log.Printf("[Worker] %s duration probe failed, estimating %.1fs: %v", name, estimated, err)
		asset = models.AudioAsset{Path: path, RawSec: estimated, EffectiveSec: estimated}
	}

	return &segment{asset: asset, data: resp.AudioData, text: text}
}

// alignCaptions produces word timings for the story segment. Transcription is
// preferred when enabled; any failure or empty result falls back to the
// deterministic heuristic. Output always satisfies the monotonic and
// exact-final-end invariants.
func (w *Worker) alignCaptions(ctx context.Context, story *segment) []models.WordTimestamp {
	total := story.asset.EffectiveSec

	if w.opts.TranscriptionEnabled && w.transcriber != nil {
		trCtx, cancel := context.WithTimeout(ctx, transcribeTimeout)
		defer cancel()

		transcribed, err := w.transcriber.TranscribeWithScript(trCtx, story.data, story.text)
		switch {
		case err != nil:
			log.Printf("[Worker] transcription failed, using heuristic timing: %v", err)
		case !align.Validate(transcribed):
			log.Printf("[Worker] transcription returned unusable words, using heuristic timing")
		default:
			reconciled := align.Reconcile(story.text, transcribed, w.opts.MatchRatioThreshold)
			return align.Normalize(reconciled, total)
		}
	}

	return align.Normalize(align.Heuristic(story.text, total), total)
}

// buildPlan resolves layer presence once and assembles the composition plan.
func (w *Worker) buildPlan(
	req models.VideoRequest,
	selection models.BackgroundSelection,
	opening, story *segment,
	captionPath string,
	openingSec, totalSec float64,
) *compose.Plan {
	source := selection.SourceURL
	if selection.Mode == models.BackgroundModeMontage {
		source = selection.LocalPath
	}

	plan := &compose.Plan{
		Background:  compose.BackgroundLayer{Source: source},
		DurationSec: totalSec,
	}

	// Banner needs a title, at least one banner image, and an opening window
	topImage := existingPath(w.opts.BannerTopImagePath)
	bottomImage := existingPath(w.opts.BannerBottomImagePath)
	if req.Title != "" && (topImage != "" || bottomImage != "") && openingSec > 0 {
		fontFile, _ := w.fonts.Resolve(captionFontFamily)
		plan.Banner = &compose.BannerLayer{
			TopImagePath:    topImage,
			BottomImagePath: bottomImage,
			Title:           layout.WrapTitle(req.Title, layout.Options{}),
			SubredditLabel:  req.Subreddit,
			AuthorLabel:     req.Author,
			FontFile:        fontFile,
			VisibleUntilSec: openingSec,
		}
	}

	if captionPath != "" {
		plan.Captions = &compose.CaptionLayer{TrackPath: captionPath}
	}

	if opening != nil {
		plan.Audio.OpeningPath = opening.asset.Path
		plan.Audio.OpeningSec = opening.asset.EffectiveSec
	}
	if story != nil {
		plan.Audio.StoryPath = story.asset.Path
		plan.Audio.StorySec = story.asset.EffectiveSec
	}

	return plan
}

// SplitStory divides the submitted text into the opening narration and the
// story proper. A line consisting of the marker splits the two; without one
// the title itself is narrated as the opening.
func SplitStory(title, storyText string) (opening, story string) {
	lines := strings.Split(storyText, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == openingMarker {
			opening = strings.TrimSpace(strings.Join(lines[:i], "\n"))
			story = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return opening, story
		}
	}
	return strings.TrimSpace(title), strings.TrimSpace(storyText)
}

func existingPath(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
