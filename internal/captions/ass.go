package captions

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Word-by-word ASS caption track
//
// One dialogue event per narrated word, displayed upper-cased in the lower
// third of the portrait frame. Each word carries a short "pop-in" transform:
// it appears shrunken and transparent, overshoots to ~110% scale while fading
// in, then settles at 100%. The whole animation takes ~140ms, anchored at the
// word's own start time.
// ---------------------------------------------------------------------------

const (
	captionFontSize = 92

	// ASS colors are in &HAABBGGRR format (hex, note: BGR not RGB)
	assColorWhite     = "&H00FFFFFF"
	assColorBlack     = "&H00000000"
	assColorSemiBlack = "&H80000000"

	captionOutline = 5
	captionMarginV = 640

	// Pop-in timing (milliseconds within the word's own span)
	popOvershootMs = 70
	popSettleMs    = 140
	popFadeMs      = 40
	popStartScale  = 60  // percent
	popPeakScale   = 110 // percent
)

// Style carries the resolved presentation knobs for a caption track.
type Style struct {
	FontName string
}

// WriteTrack writes the ASS caption file for a word sequence.
//
// offsetSec shifts every timestamp forward by the duration of the opening
// segment, so captions begin only once the story narration starts.
func WriteTrack(words []models.WordTimestamp, outputPath string, offsetSec float64, style Style) error {
	if len(words) == 0 {
		return fmt.Errorf("no words to build a caption track from")
	}

	fontName := style.FontName
	if fontName == "" {
		fontName = "Noto Sans"
	}

	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", 1080)
	fmt.Fprintf(&sb, "PlayResY: %d\n", 1920)
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb,
		"Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,2,0,1,%d,0,2,40,40,%d,1\n",
		fontName, captionFontSize,
		assColorWhite,
		assColorWhite,
		assColorBlack,
		assColorSemiBlack,
		captionOutline,
		captionMarginV,
	)
	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, word := range words {
		text := strings.ToUpper(strings.TrimSpace(word.Word))
		if text == "" {
			continue
		}

		start := word.Start + offsetSec
		end := word.End + offsetSec

		fmt.Fprintf(&sb,
			"Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			formatASSTime(start),
			formatASSTime(end),
			popInTags(),
			text,
		)
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write caption track: %w", err)
	}

	return nil
}

// popInTags builds the ASS override block for the pop-in animation:
// fade in, start at popStartScale, overshoot to popPeakScale, settle at 100%.
func popInTags() string {
	return fmt.Sprintf(
		"{\\fad(%d,0)\\fscx%d\\fscy%d\\t(0,%d,\\fscx%d\\fscy%d)\\t(%d,%d,\\fscx100\\fscy100)}",
		popFadeMs,
		popStartScale, popStartScale,
		popOvershootMs, popPeakScale, popPeakScale,
		popOvershootMs, popSettleMs,
	)
}

// formatASSTime converts seconds to ASS timestamp format: H:MM:SS.CC,
// rounded to the nearest centisecond so event ends track the pinned total
// duration as closely as the format allows.
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	cs := int(math.Round(seconds * 100))
	hours := cs / 360000
	minutes := (cs % 360000) / 6000
	secs := (cs % 6000) / 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, cs%100)
}
