package compose

import (
	"fmt"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/services"
)

// ---------------------------------------------------------------------------
// Composition graph
//
// The final video is a conditional assembly: a background base layer, an
// optional banner (top image + title box + bottom image, any subset), an
// optional caption track, and whatever narration audio exists. Each present
// layer contributes its own inputs and filter chains; Build composes the
// graph from only the present layers, so every layer combination is
// independently testable without touching a render engine.
// ---------------------------------------------------------------------------

// Input is one media input of the graph (local file or URL).
type Input struct {
	Path string
	Args []string // flags placed before -i, e.g. stream options
}

// Chain is one filter node: consumes labeled streams, emits labeled streams.
type Chain struct {
	Inputs  []string
	Filter  string
	Outputs []string
}

// Graph is the declarative description handed to the render engine.
type Graph struct {
	Inputs      []Input
	Chains      []Chain
	VideoOut    string // label of the final video stream
	AudioOut    string // chain label, direct stream ref ("1:a"), or "" = silent
	DurationSec float64
}

// AddInput appends a media input and returns its index.
func (g *Graph) AddInput(path string, args ...string) int {
	g.Inputs = append(g.Inputs, Input{Path: path, Args: args})
	return len(g.Inputs) - 1
}

// AddChain appends a filter node.
func (g *Graph) AddChain(inputs []string, filter string, outputs ...string) {
	g.Chains = append(g.Chains, Chain{Inputs: inputs, Filter: filter, Outputs: outputs})
}

// FilterComplex renders the chains as an ffmpeg filter_complex expression.
func (g *Graph) FilterComplex() string {
	parts := make([]string, 0, len(g.Chains))
	for _, c := range g.Chains {
		var b strings.Builder
		for _, in := range c.Inputs {
			fmt.Fprintf(&b, "[%s]", in)
		}
		b.WriteString(c.Filter)
		for _, out := range c.Outputs {
			fmt.Fprintf(&b, "[%s]", out)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

// BackgroundLayer is the mandatory base: the background track scaled and
// cropped to the canonical frame with a fixed color grade. Short sources are
// frame-frozen rather than ending early.
type BackgroundLayer struct {
	Source string // local path or URL
}

func (l BackgroundLayer) contribute(g *Graph) string {
	idx := g.AddInput(l.Source)
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d,eq=contrast=1.05:saturation=1.15,tpad=stop_mode=clone:stop_duration=60",
		services.FrameWidth, services.FrameHeight,
		services.FrameWidth, services.FrameHeight,
		services.FrameFPS,
	)
	g.AddChain([]string{fmt.Sprintf("%d:v", idx)}, filter, "base")
	return "base"
}

// BannerLayer stacks an optional top image, the dynamically sized title box,
// and an optional bottom image, overlaid centered on the base layer and
// visible only during the opening window.
type BannerLayer struct {
	TopImagePath    string // optional
	BottomImagePath string // optional
	Title           models.TitleLayout
	SubredditLabel  string // optional, drawn in the box's top-left corner
	AuthorLabel     string // optional, drawn in the box's bottom-right corner
	FontFile        string
	VisibleUntilSec float64
}

// bannerWidth is the overlay width on the 1080-wide frame.
const bannerWidth = 1000

const (
	titleFontSize  = 46
	labelFontSize  = 26
	titleTextColor = "0x1A1A1B"
	labelTextColor = "0x787C7E"
)

func (l *BannerLayer) contribute(g *Graph, base string, durationSec float64) string {
	var stack []string

	if l.TopImagePath != "" {
		idx := g.AddInput(l.TopImagePath)
		label := "banner_top"
		g.AddChain([]string{fmt.Sprintf("%d:v", idx)}, fmt.Sprintf("scale=%d:-1", bannerWidth), label)
		stack = append(stack, label)
	}

	if len(l.Title.Lines) > 0 {
		stack = append(stack, l.contributeTitleBox(g, durationSec))
	}

	if l.BottomImagePath != "" {
		idx := g.AddInput(l.BottomImagePath)
		label := "banner_bottom"
		g.AddChain([]string{fmt.Sprintf("%d:v", idx)}, fmt.Sprintf("scale=%d:-1", bannerWidth), label)
		stack = append(stack, label)
	}

	if len(stack) == 0 {
		return base
	}

	banner := stack[0]
	if len(stack) > 1 {
		banner = "banner"
		g.AddChain(stack, fmt.Sprintf("vstack=inputs=%d", len(stack)), banner)
	}

	out := "with_banner"
	overlay := fmt.Sprintf("overlay=(W-w)/2:(H-h)/2:enable='between(t,0,%.3f)'", l.VisibleUntilSec)
	g.AddChain([]string{base, banner}, overlay, out)
	return out
}

// contributeTitleBox draws the wrapped title lines onto a white box whose
// height follows the line count.
func (l *BannerLayer) contributeTitleBox(g *Graph, durationSec float64) string {
	box := fmt.Sprintf("color=c=white:s=%dx%d:d=%.3f,format=rgba",
		bannerWidth, l.Title.BoxHeight, durationSec)

	for i, line := range l.Title.Lines {
		y := l.Title.PaddingTop + i*l.Title.LineHeight + (l.Title.LineHeight-titleFontSize)/2
		box += fmt.Sprintf(
			",drawtext=fontfile='%s':text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%d",
			escapeFilterText(l.FontFile), escapeFilterText(line), titleFontSize, titleTextColor, y,
		)
	}

	if l.SubredditLabel != "" {
		box += fmt.Sprintf(
			",drawtext=fontfile='%s':text='%s':fontsize=%d:fontcolor=%s:x=24:y=8",
			escapeFilterText(l.FontFile), escapeFilterText(l.SubredditLabel), labelFontSize, labelTextColor,
		)
	}
	if l.AuthorLabel != "" {
		box += fmt.Sprintf(
			",drawtext=fontfile='%s':text='%s':fontsize=%d:fontcolor=%s:x=w-text_w-24:y=h-%d",
			escapeFilterText(l.FontFile), escapeFilterText(l.AuthorLabel), labelFontSize, labelTextColor, labelFontSize+8,
		)
	}

	g.AddChain(nil, box, "title_box")
	return "title_box"
}

// CaptionLayer burns the word-level subtitle track over the composed visual.
type CaptionLayer struct {
	TrackPath string
}

func (l *CaptionLayer) contribute(g *Graph, base string) string {
	out := "with_captions"
	g.AddChain([]string{base}, fmt.Sprintf("ass='%s'", escapeFilterText(l.TrackPath)), out)
	return out
}

// AudioLayer orders the narration tracks. Opening plays before the story;
// either may be absent, and with neither the output is silent. A positive
// *Sec carries that track's effective (silence-trimmed) length: the track is
// cut to it before concatenation, so trailing dead air in the opening cannot
// push the story behind its caption timings.
type AudioLayer struct {
	OpeningPath string
	OpeningSec  float64
	StoryPath   string
	StorySec    float64
}

func (l AudioLayer) contribute(g *Graph) {
	switch {
	case l.OpeningPath != "" && l.StoryPath != "":
		a := g.AddInput(l.OpeningPath)
		b := g.AddInput(l.StoryPath)
		opening := trimmedAudio(g, a, l.OpeningSec, "opening_a")
		story := trimmedAudio(g, b, l.StorySec, "story_a")
		g.AddChain(
			[]string{opening, story},
			"concat=n=2:v=0:a=1",
			"narration",
		)
		g.AudioOut = "narration"
	case l.OpeningPath != "":
		idx := g.AddInput(l.OpeningPath)
		g.AudioOut = fmt.Sprintf("%d:a", idx)
	case l.StoryPath != "":
		idx := g.AddInput(l.StoryPath)
		g.AudioOut = fmt.Sprintf("%d:a", idx)
	default:
		g.AudioOut = ""
	}
}

// trimmedAudio cuts a narration input to its effective length. Zero means
// the length was never measured; the track passes through untouched.
func trimmedAudio(g *Graph, idx int, durSec float64, label string) string {
	ref := fmt.Sprintf("%d:a", idx)
	if durSec <= 0 {
		return ref
	}
	g.AddChain([]string{ref}, fmt.Sprintf("atrim=0:%.3f,asetpts=PTS-STARTPTS", durSec), label)
	return label
}

// ---------------------------------------------------------------------------
// Plan
// ---------------------------------------------------------------------------

// Plan is the ordered set of optional layers for one job. Presence is
// resolved once, before the graph is built.
type Plan struct {
	Background  BackgroundLayer
	Banner      *BannerLayer // nil when no title/banner assets exist
	Captions    *CaptionLayer
	Audio       AudioLayer
	DurationSec float64
}

// Build composes the graph from the present layers.
func (p *Plan) Build() *Graph {
	g := &Graph{DurationSec: p.DurationSec}

	visual := p.Background.contribute(g)
	if p.Banner != nil {
		visual = p.Banner.contribute(g, visual, p.DurationSec)
	}
	if p.Captions != nil {
		visual = p.Captions.contribute(g, visual)
	}
	g.VideoOut = visual

	p.Audio.contribute(g)

	return g
}

// Minimal strips the plan to background plus whatever audio exists — the
// degraded-fidelity fallback used after a primary render failure.
func (p *Plan) Minimal() *Plan {
	return &Plan{
		Background:  p.Background,
		Audio:       p.Audio,
		DurationSec: p.DurationSec,
	}
}

// escapeFilterText escapes characters that ffmpeg filter arguments treat
// specially: backslashes, colons, and single quotes.
func escapeFilterText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ":", "\\:")
	s = strings.ReplaceAll(s, "'", "'\\''")
	return s
}
