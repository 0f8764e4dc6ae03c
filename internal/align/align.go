package align

import (
	"math"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Caption alignment
//
// Two paths produce word-level timings for the narration:
//   - Heuristic: deterministic, always available. Splits the script into
//     words and distributes the measured duration proportionally to word
//     length.
//   - Transcription: word timings measured by a speech-to-text service,
//     reconciled against the authored script (Reconcile).
//
// Whatever the path, Normalize is applied last so the sequence is monotonic
// and the final word ends exactly at the narration's total duration.
// ---------------------------------------------------------------------------

// Heuristic distributes totalSec across the words of text, weighting each
// word by max(1, len) after trailing punctuation is stripped. Spans are
// sequential and non-overlapping; the last end lands on totalSec exactly.
func Heuristic(text string, totalSec float64) []models.WordTimestamp {
	raw := strings.Fields(text)
	if len(raw) == 0 || totalSec <= 0 {
		return nil
	}

	words := make([]string, 0, len(raw))
	weights := make([]float64, 0, len(raw))
	var totalWeight float64

	for _, w := range raw {
		w = strings.TrimRight(w, ".,!?;:…\"')")
		if w == "" {
			continue
		}
		weight := math.Max(1, float64(len(w)))
		words = append(words, w)
		weights = append(weights, weight)
		totalWeight += weight
	}

	if len(words) == 0 {
		return nil
	}

	out := make([]models.WordTimestamp, len(words))
	cursor := 0.0
	for i, w := range words {
		span := totalSec * weights[i] / totalWeight
		out[i] = models.WordTimestamp{Word: w, Start: cursor, End: cursor + span}
		cursor += span
	}

	// Absorb floating-point drift into the final word
	out[len(out)-1].End = totalSec

	return out
}

// Reconcile decides what to emit when a transcription is available.
//
// When the transcribed word count matches the script's, the per-position
// match ratio (lower-cased, non-alphanumerics stripped) is computed. At or
// above threshold the authored words are paired with the measured timings —
// the script's wording is what was approved, the transcription's clock is
// what was heard. Below threshold, or on a count mismatch, the transcription
// is emitted verbatim as the best available sync.
func Reconcile(script string, transcribed []models.WordTimestamp, threshold float64) []models.WordTimestamp {
	scriptWords := strings.Fields(script)
	if len(scriptWords) != len(transcribed) {
		return transcribed
	}

	matches := 0
	for i, w := range transcribed {
		if normalizeToken(scriptWords[i]) == normalizeToken(w.Word) {
			matches++
		}
	}

	ratio := float64(matches) / float64(len(transcribed))
	if ratio < threshold {
		return transcribed
	}

	out := make([]models.WordTimestamp, len(transcribed))
	for i, w := range transcribed {
		out[i] = models.WordTimestamp{
			Word:  strings.TrimRight(scriptWords[i], ".,!?;:…\"')"),
			Start: w.Start,
			End:   w.End,
		}
	}
	return out
}

// Validate reports whether every transcribed word is usable: non-empty text
// and a finite, positive span.
func Validate(words []models.WordTimestamp) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" {
			return false
		}
		if math.IsNaN(w.Start) || math.IsInf(w.Start, 0) ||
			math.IsNaN(w.End) || math.IsInf(w.End, 0) {
			return false
		}
		if w.Start < 0 || w.Start >= w.End {
			return false
		}
	}
	return true
}

// Normalize clamps a sequence to the monotonic invariant and pins the final
// end to totalSec. Every aligner output passes through here before a caption
// track is built from it.
func Normalize(words []models.WordTimestamp, totalSec float64) []models.WordTimestamp {
	if len(words) == 0 {
		return words
	}

	out := make([]models.WordTimestamp, len(words))
	copy(out, words)

	cursor := 0.0
	for i := range out {
		if out[i].Start < cursor {
			out[i].Start = cursor
		}
		if out[i].End < out[i].Start {
			out[i].End = out[i].Start
		}
		if out[i].End > totalSec {
			out[i].End = totalSec
		}
		if out[i].Start > totalSec {
			out[i].Start = totalSec
		}
		cursor = out[i].End
	}

	out[len(out)-1].End = totalSec
	if out[len(out)-1].Start > totalSec {
		out[len(out)-1].Start = totalSec
	}

	return out
}

// normalizeToken lower-cases and strips everything but letters and digits so
// "Homework!" and "homework" compare equal.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
