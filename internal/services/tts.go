package services

import (
	"context"
	"strings"
)

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers
// Both ElevenLabs and OpenAI implement this interface so the worker can use
// whichever is configured without knowing the underlying provider.
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData  []byte
	DurationMs int // estimated; the probe measures the real value
	Format     string
}

// TTSService is the interface that any TTS provider must implement.
type TTSService interface {
	// GenerateSpeech converts text to audio. voiceID selects the narrator
	// voice; empty means the provider's configured default.
	GenerateSpeech(ctx context.Context, text, voiceID string) (*TTSResponse, error)
}

// EstimateDurationMs estimates narration length from text alone, used when a
// provider doesn't report duration and as a last resort when probing fails.
// Average narration pace is ~140 words per minute.
func EstimateDurationMs(text string, speed float64) int {
	words := len(strings.Fields(text))
	baseWPM := 140.0

	actualWPM := baseWPM * speed
	if actualWPM <= 0 {
		actualWPM = baseWPM
	}

	minutes := float64(words) / actualWPM
	return int(minutes * 60 * 1000)
}
