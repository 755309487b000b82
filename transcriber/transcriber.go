// Package transcriber converts encoded audio into text. Two engines are
// supported: a local whisper-cli subprocess and the Groq transcription API.
package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"murmur/config"
	"murmur/encoder"
)

// Segment is one engine-reported span of the transcription.
type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

// Result is the outcome of one transcription call. Metrics is set only for
// HTTP engines.
type Result struct {
	Text         string
	Duration     float64
	NoSpeechProb float64
	AvgLogProb   float64
	Segments     []Segment
	Metrics      *NetworkMetrics
	RateLimit    string
}

// Transcriber turns one utterance of encoded audio into text. Transcribe
// honors ctx cancellation and deadline; a killed engine returns ctx.Err().
type Transcriber interface {
	Name() string
	PreferredFormat() encoder.Format
	Transcribe(ctx context.Context, audio []byte, format encoder.Format) (*Result, error)
}

// New selects the engine from the config. "auto" prefers Groq when
// GROQ_API_KEY is set and falls back to the local whisper-cli binary.
func New(cfg config.TranscriberConfig) (Transcriber, error) {
	groqKey := os.Getenv("GROQ_API_KEY")

	switch cfg.Engine {
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("engine groq requires GROQ_API_KEY")
		}
		return NewGroq(groqKey, cfg.Language), nil
	case "whisper-cli":
		return NewWhisperCLI(cfg)
	case "auto":
		if groqKey != "" {
			return NewGroq(groqKey, cfg.Language), nil
		}
		return NewWhisperCLI(cfg)
	}
	return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}
