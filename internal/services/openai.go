package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipsmith/clipsmith/internal/models"
)

// OpenAIService wraps the two OpenAI collaborators the pipeline uses:
// Whisper word-level transcription for caption sync, and the TTS endpoint as
// the secondary speech provider.
type OpenAIService struct {
	client *openai.Client
}

// Ensure OpenAIService can serve as the TTS provider.
var _ TTSService = (*OpenAIService)(nil)

func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(apiKey),
	}
}

// ---------------------------------------------------------------------------
// Whisper Transcription — word-level timestamps for caption sync
// ---------------------------------------------------------------------------

// TranscribeWithScript sends narration audio to Whisper and returns word-level
// timestamps. The authored script is passed as the transcription prompt so
// the decoder is biased toward the wording that was actually synthesized.
func (s *OpenAIService) TranscribeWithScript(ctx context.Context, audioData []byte, script string) ([]models.WordTimestamp, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audioData),
		FilePath: "narration.mp3", // filename hint required by the library
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: "en",
		Prompt:   script,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	if len(resp.Words) == 0 {
		return nil, fmt.Errorf("whisper returned no word timestamps (text: %q)", resp.Text)
	}

	words := make([]models.WordTimestamp, len(resp.Words))
	for i, w := range resp.Words {
		words[i] = models.WordTimestamp{
			Word:  strings.TrimSpace(w.Word),
			Start: w.Start,
			End:   w.End,
		}
	}

	log.Printf("[Whisper] Transcribed %d words (duration: %.1fs, text: %q)",
		len(words), resp.Duration, truncateString(resp.Text, 80))

	return words, nil
}

// ---------------------------------------------------------------------------
// OpenAI TTS — secondary speech provider
// ---------------------------------------------------------------------------

// GenerateSpeech synthesizes narration via the OpenAI TTS endpoint.
// Implements the TTSService interface. voiceID maps onto the fixed OpenAI
// voice set; unknown or empty values use "onyx".
func (s *OpenAIService) GenerateSpeech(ctx context.Context, text, voiceID string) (*TTSResponse, error) {
	voice := openai.VoiceOnyx
	switch strings.ToLower(voiceID) {
	case "alloy":
		voice = openai.VoiceAlloy
	case "echo":
		voice = openai.VoiceEcho
	case "fable":
		voice = openai.VoiceFable
	case "nova":
		voice = openai.VoiceNova
	case "shimmer":
		voice = openai.VoiceShimmer
	}

	log.Printf("[OpenAI TTS] Generating speech (voice=%s, textLen=%d)", voice, len(text))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai tts request failed: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai tts response: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("openai tts returned empty audio")
	}

	durationMs := EstimateDurationMs(text, 1.0)

	log.Printf("[OpenAI TTS] Speech generated (%d bytes, estimated %dms)", len(audioData), durationMs)

	return &TTSResponse{
		AudioData:  audioData,
		DurationMs: durationMs,
		Format:     "mp3",
	}, nil
}

// truncateString truncates a string to maxLen and appends "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
