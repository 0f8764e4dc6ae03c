package background

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/services"
)

// ChunkSec is the maximum montage segment length.
const ChunkSec = 6.0

// genericDefaultURL backs up the per-category defaults when even those are
// missing. It always exists in the public bucket.
const genericDefaultURL = "https://cdn.clipsmith.dev/backgrounds/minecraft-parkour/default.mp4"

// Catalog lists candidate clips under a category prefix, fetches clip bytes,
// and turns a clip name into a public URL. Implemented by the storage
// catalog client.
type Catalog interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, objectPath string) ([]byte, error)
	PublicURL(path string) string
}

// category describes one canonical background category.
type category struct {
	prefix     string
	montage    bool
	defaultURL string
}

// categories keys are canonical names; aliases maps spelling variants onto
// them so "subway_surfers" and "subwaysurfers" hit the same prefix.
var categories = map[string]category{
	"minecraft-parkour": {
		prefix:     "backgrounds/minecraft-parkour/",
		defaultURL: "https://cdn.clipsmith.dev/backgrounds/minecraft-parkour/default.mp4",
	},
	"subway-surfers": {
		prefix:     "backgrounds/subway-surfers/",
		defaultURL: "https://cdn.clipsmith.dev/backgrounds/subway-surfers/default.mp4",
	},
	"gta-ramps": {
		prefix:     "backgrounds/gta-ramps/",
		montage:    true,
		defaultURL: "https://cdn.clipsmith.dev/backgrounds/gta-ramps/default.mp4",
	},
	"soap-cutting": {
		prefix:     "backgrounds/soap-cutting/",
		montage:    true,
		defaultURL: "https://cdn.clipsmith.dev/backgrounds/soap-cutting/default.mp4",
	},
}

var aliases = map[string]string{
	"minecraft":        "minecraft-parkour",
	"mc-parkour":       "minecraft-parkour",
	"parkour":          "minecraft-parkour",
	"subway":           "subway-surfers",
	"subwaysurfers":    "subway-surfers",
	"gta":              "gta-ramps",
	"gta5":             "gta-ramps",
	"soap":             "soap-cutting",
	"satisfying":       "soap-cutting",
	"oddly-satisfying": "soap-cutting",
}

const defaultCategory = "minecraft-parkour"

// Resolver picks or builds a background track matching a required duration.
type Resolver struct {
	catalog Catalog
	media   *services.MediaService
}

func NewResolver(catalog Catalog, media *services.MediaService) *Resolver {
	return &Resolver{catalog: catalog, media: media}
}

// NormalizeCategory maps a requested category tag onto a canonical one.
func NormalizeCategory(tag string) string {
	norm := strings.ToLower(strings.TrimSpace(tag))
	norm = strings.ReplaceAll(norm, " ", "-")
	norm = strings.ReplaceAll(norm, "_", "-")

	if norm == "" {
		return defaultCategory
	}
	if canonical, ok := aliases[norm]; ok {
		return canonical
	}
	if _, ok := categories[norm]; ok {
		return norm
	}
	return defaultCategory
}

// ChunkPlan splits a required duration into montage chunk lengths. It always
// returns ceil(totalSec/chunkSec) chunks whose lengths sum to totalSec.
func ChunkPlan(totalSec, chunkSec float64) []float64 {
	if totalSec <= 0 || chunkSec <= 0 {
		return nil
	}

	n := int(math.Ceil(totalSec / chunkSec))
	plan := make([]float64, 0, n)
	remaining := totalSec
	for i := 0; i < n; i++ {
		length := math.Min(chunkSec, remaining)
		plan = append(plan, length)
		remaining -= length
	}
	return plan
}

// Resolve picks or builds a background for the category and total duration.
// Single-clip categories return a random clip URL used as-is; montage
// categories cut and concatenate random chunks into a local track under
// workDir. An unreachable or empty catalog degrades to the category's fixed
// default URL rather than failing the job.
func (r *Resolver) Resolve(ctx context.Context, categoryTag string, totalSec float64, workDir string) models.BackgroundSelection {
	canonical := NormalizeCategory(categoryTag)
	cat := categories[canonical]

	clips := r.listClips(ctx, canonical, categoryTag, cat.prefix)
	if len(clips) == 0 {
		log.Printf("[Background] no clips for category %q, using default URL", canonical)
		return models.BackgroundSelection{
			Mode:      models.BackgroundModeSingle,
			SourceURL: r.defaultURL(cat),
			TotalSec:  totalSec,
		}
	}

	if !cat.montage {
		pick := clips[rand.Intn(len(clips))]
		return models.BackgroundSelection{
			Mode:      models.BackgroundModeSingle,
			SourceURL: r.catalog.PublicURL(pick),
			TotalSec:  totalSec,
		}
	}

	selection, err := r.buildMontage(ctx, clips, totalSec, workDir)
	if err != nil {
		log.Printf("[Background] montage build failed, using default URL: %v", err)
		return models.BackgroundSelection{
			Mode:      models.BackgroundModeSingle,
			SourceURL: r.defaultURL(cat),
			TotalSec:  totalSec,
		}
	}
	return selection
}

// listClips tries the canonical prefix first, then the raw spelling, so both
// spellings of an aliased category are honored.
func (r *Resolver) listClips(ctx context.Context, canonical, rawTag, canonicalPrefix string) []string {
	prefixes := []string{canonicalPrefix}

	rawNorm := strings.ToLower(strings.TrimSpace(rawTag))
	rawNorm = strings.ReplaceAll(rawNorm, " ", "-")
	rawNorm = strings.ReplaceAll(rawNorm, "_", "-")
	if rawNorm != "" && rawNorm != canonical {
		prefixes = append(prefixes, "backgrounds/"+rawNorm+"/")
	}

	for _, prefix := range prefixes {
		clips, err := r.catalog.List(ctx, prefix)
		if err != nil {
			log.Printf("[Background] catalog list failed for %q: %v", prefix, err)
			continue
		}
		if len(clips) > 0 {
			return clips
		}
	}
	return nil
}

func (r *Resolver) defaultURL(cat category) string {
	if cat.defaultURL != "" {
		return cat.defaultURL
	}
	return genericDefaultURL
}

// buildMontage cuts one random chunk per plan entry and concatenates them.
// Source clips are downloaded once each; segments are independent, so they
// are prepared concurrently.
func (r *Resolver) buildMontage(ctx context.Context, clips []string, totalSec float64, workDir string) (models.BackgroundSelection, error) {
	plan := ChunkPlan(totalSec, ChunkSec)
	if len(plan) == 0 {
		return models.BackgroundSelection{}, fmt.Errorf("empty chunk plan for %.2fs", totalSec)
	}

	picks := make([]string, len(plan))
	for i := range plan {
		picks[i] = clips[rand.Intn(len(clips))]
	}

	locals, err := r.fetchClips(ctx, picks, workDir)
	if err != nil {
		return models.BackgroundSelection{}, err
	}

	segmentPaths := make([]string, len(plan))
	segmentURLs := make([]string, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	for i, length := range plan {
		i, length := i, length
		segmentPaths[i] = filepath.Join(workDir, fmt.Sprintf("segment_%02d.mp4", i))
		segmentURLs[i] = r.catalog.PublicURL(picks[i])
		src := locals[picks[i]]

		g.Go(func() error {
			offset := r.pickStartOffset(gctx, src, length)
			if err := r.media.CutSegment(gctx, src, offset, length, segmentPaths[i]); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.BackgroundSelection{}, err
	}

	trackPath := filepath.Join(workDir, "background.mp4")
	if err := r.media.ConcatSegments(ctx, segmentPaths, trackPath); err != nil {
		return models.BackgroundSelection{}, err
	}

	log.Printf("[Background] montage built: %d segments, %.2fs total", len(plan), totalSec)

	return models.BackgroundSelection{
		Mode:        models.BackgroundModeMontage,
		LocalPath:   trackPath,
		SegmentURLs: segmentURLs,
		TotalSec:    totalSec,
	}, nil
}

// fetchClips downloads each distinct picked clip once into workDir, so
// chunks repeating a clip cut from one local copy instead of refetching the
// catalog per segment.
func (r *Resolver) fetchClips(ctx context.Context, picks []string, workDir string) (map[string]string, error) {
	locals := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	for _, clip := range picks {
		clip := clip
		if _, ok := locals[clip]; ok {
			continue
		}
		local := filepath.Join(workDir, fmt.Sprintf("clip_%02d%s", len(locals), filepath.Ext(clip)))
		locals[clip] = local

		g.Go(func() error {
			data, err := r.catalog.Download(gctx, clip)
			if err != nil {
				return fmt.Errorf("fetch clip %s: %w", clip, err)
			}
			if err := os.WriteFile(local, data, 0644); err != nil {
				return fmt.Errorf("write clip %s: %w", clip, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locals, nil
}

// pickStartOffset probes the source and picks a random valid start for a
// chunk of chunkLen. Unknown or too-short sources start at 0.
func (r *Resolver) pickStartOffset(ctx context.Context, url string, chunkLen float64) float64 {
	dur, err := r.media.ProbeDuration(ctx, url)
	if err != nil {
		log.Printf("[Background] probe failed for %s, starting at 0: %v", url, err)
		return 0
	}
	if dur <= chunkLen {
		return 0
	}
	return rand.Float64() * (dur - chunkLen)
}
