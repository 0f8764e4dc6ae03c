package layout

import (
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// Banner title box defaults, tuned for the 1080-wide frame.
const (
	DefaultMaxCharsPerLine = 26
	DefaultMaxLines        = 4
	DefaultLineHeight      = 62
	DefaultPaddingTop      = 20
	DefaultPaddingBottom   = 20
	DefaultMinBoxHeight    = 104
)

// Options bound the title box. Zero values take the defaults above.
type Options struct {
	MaxCharsPerLine int
	MaxLines        int
	LineHeight      int
	PaddingTop      int
	PaddingBottom   int
	MinBoxHeight    int
}

func (o Options) withDefaults() Options {
	if o.MaxCharsPerLine <= 0 {
		o.MaxCharsPerLine = DefaultMaxCharsPerLine
	}
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.LineHeight <= 0 {
		o.LineHeight = DefaultLineHeight
	}
	if o.PaddingTop <= 0 {
		o.PaddingTop = DefaultPaddingTop
	}
	if o.PaddingBottom <= 0 {
		o.PaddingBottom = DefaultPaddingBottom
	}
	if o.MinBoxHeight <= 0 {
		o.MinBoxHeight = DefaultMinBoxHeight
	}
	return o
}

// WrapTitle lays out banner title text as a bounded box: greedy word wrap up
// to MaxCharsPerLine, at most MaxLines lines, box height derived from the
// final line count. Words longer than a full line are hard-split into
// line-sized fragments, so no characters are lost.
func WrapTitle(title string, opts Options) models.TitleLayout {
	opts = opts.withDefaults()

	var lines []string
	current := ""

	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range strings.Fields(title) {
		// Hard-split words that can't fit on a line by themselves
		for len(word) > opts.MaxCharsPerLine {
			flush()
			lines = append(lines, word[:opts.MaxCharsPerLine])
			word = word[opts.MaxCharsPerLine:]
		}
		if word == "" {
			continue
		}

		if current == "" {
			current = word
		} else if len(current)+1+len(word) <= opts.MaxCharsPerLine {
			current += " " + word
		} else {
			flush()
			current = word
		}
	}
	flush()

	if len(lines) > opts.MaxLines {
		lines = lines[:opts.MaxLines]
	}

	boxHeight := opts.PaddingTop + opts.PaddingBottom + len(lines)*opts.LineHeight
	if boxHeight < opts.MinBoxHeight {
		boxHeight = opts.MinBoxHeight
	}

	return models.TitleLayout{
		Lines:         lines,
		BoxHeight:     boxHeight,
		LineHeight:    opts.LineHeight,
		PaddingTop:    opts.PaddingTop,
		PaddingBottom: opts.PaddingBottom,
	}
}
