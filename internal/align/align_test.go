package align

import (
	"math"
	"testing"

	"github.com/clipsmith/clipsmith/internal/models"
)

func TestHeuristicSpansAreMonotonicAndCoverDuration(t *testing.T) {
	words := Heuristic("My cat shredded my homework. Now I'm in trouble.", 3.6)

	if len(words) != 9 {
		t.Fatalf("expected 9 words, got %d", len(words))
	}

	cursor := 0.0
	for i, w := range words {
		if w.Start < cursor {
			t.Errorf("word %d (%q) starts at %.4f before previous end %.4f", i, w.Word, w.Start, cursor)
		}
		if w.End <= w.Start {
			t.Errorf("word %d (%q) has non-positive span [%.4f, %.4f]", i, w.Word, w.Start, w.End)
		}
		cursor = w.End
	}

	last := words[len(words)-1]
	if last.End != 3.6 {
		t.Errorf("expected final end to land exactly on 3.6, got %v", last.End)
	}
}

func TestHeuristicStripsTrailingPunctuation(t *testing.T) {
	words := Heuristic("Wait... really?! Yes.", 2.0)

	expected := []string{"Wait", "really", "Yes"}
	if len(words) != len(expected) {
		t.Fatalf("expected %d words, got %d", len(expected), len(words))
	}
	for i, want := range expected {
		if words[i].Word != want {
			t.Errorf("word %d: expected %q, got %q", i, want, words[i].Word)
		}
	}
}

func TestHeuristicWeightsLongerWords(t *testing.T) {
	words := Heuristic("a television", 2.0)

	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}

	short := words[0].End - words[0].Start
	long := words[1].End - words[1].Start
	if long <= short {
		t.Errorf("expected %q to get a longer span than %q, got %.4f vs %.4f",
			words[1].Word, words[0].Word, long, short)
	}
}

func TestHeuristicEmptyInputs(t *testing.T) {
	if got := Heuristic("", 3.0); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := Heuristic("hello world", 0); got != nil {
		t.Errorf("expected nil for zero duration, got %v", got)
	}
	if got := Heuristic("... !!!", 3.0); got != nil {
		t.Errorf("expected nil for punctuation-only text, got %v", got)
	}
}

func TestReconcileCountMismatchKeepsTranscription(t *testing.T) {
	transcribed := []models.WordTimestamp{
		{Word: "hello", Start: 0, End: 0.5},
		{Word: "there", Start: 0.5, End: 1.0},
	}

	got := Reconcile("hello there friend", transcribed, 0.7)

	if len(got) != 2 || got[0].Word != "hello" || got[1].Word != "there" {
		t.Errorf("expected transcription passed through verbatim, got %v", got)
	}
}

func TestReconcileHighRatioUsesScriptWords(t *testing.T) {
	transcribed := []models.WordTimestamp{
		{Word: "my", Start: 0, End: 0.3},
		{Word: "cat", Start: 0.3, End: 0.7},
		{Word: "shredded", Start: 0.7, End: 1.4},
		{Word: "my", Start: 1.4, End: 1.6},
		{Word: "homework", Start: 1.6, End: 2.3},
	}

	got := Reconcile("My cat shredded my homework.", transcribed, 0.7)

	if len(got) != 5 {
		t.Fatalf("expected 5 words, got %d", len(got))
	}
	// Authored casing and wording win, trailing punctuation stripped
	if got[0].Word != "My" {
		t.Errorf("expected authored casing %q, got %q", "My", got[0].Word)
	}
	if got[4].Word != "homework" {
		t.Errorf("expected trailing period stripped, got %q", got[4].Word)
	}
	// Measured timings win
	if got[2].Start != 0.7 || got[2].End != 1.4 {
		t.Errorf("expected measured timings kept, got [%v, %v]", got[2].Start, got[2].End)
	}
}

func TestReconcileLowRatioKeepsTranscription(t *testing.T) {
	transcribed := []models.WordTimestamp{
		{Word: "completely", Start: 0, End: 0.5},
		{Word: "different", Start: 0.5, End: 1.0},
		{Word: "words", Start: 1.0, End: 1.5},
	}

	got := Reconcile("my cat shredded", transcribed, 0.7)

	if got[0].Word != "completely" {
		t.Errorf("expected transcription kept below threshold, got %q", got[0].Word)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		words []models.WordTimestamp
		want  bool
	}{
		{"empty", nil, false},
		{"valid", []models.WordTimestamp{{Word: "hi", Start: 0, End: 0.5}}, true},
		{"blank word", []models.WordTimestamp{{Word: "  ", Start: 0, End: 0.5}}, false},
		{"zero span", []models.WordTimestamp{{Word: "hi", Start: 0.5, End: 0.5}}, false},
		{"negative start", []models.WordTimestamp{{Word: "hi", Start: -0.1, End: 0.5}}, false},
		{"nan", []models.WordTimestamp{{Word: "hi", Start: math.NaN(), End: 0.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.words); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeClampsOverlapsAndPinsEnd(t *testing.T) {
	words := []models.WordTimestamp{
		{Word: "one", Start: 0, End: 1.2},
		{Word: "two", Start: 1.0, End: 1.8}, // overlaps the previous word
		{Word: "three", Start: 1.8, End: 5.0},
	}

	got := Normalize(words, 3.0)

	if got[1].Start != 1.2 {
		t.Errorf("expected overlapping start clamped to 1.2, got %v", got[1].Start)
	}
	if got[2].End != 3.0 {
		t.Errorf("expected final end pinned to 3.0, got %v", got[2].End)
	}

	cursor := 0.0
	for i, w := range got {
		if w.Start < cursor {
			t.Errorf("word %d breaks monotonic order: start %v before %v", i, w.Start, cursor)
		}
		cursor = w.End
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	words := []models.WordTimestamp{
		{Word: "one", Start: 0, End: 1.0},
		{Word: "two", Start: 0.5, End: 2.0},
	}

	Normalize(words, 5.0)

	if words[1].Start != 0.5 || words[1].End != 2.0 {
		t.Errorf("input slice was mutated: %v", words[1])
	}
}
