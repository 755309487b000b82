package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"murmur/encoder"
)

const groqURL = "https://api.groq.com/openai/v1/audio/transcriptions"

type Groq struct {
	client *TracedClient
	apiKey string
	lang   string
}

func NewGroq(apiKey, lang string) *Groq {
	g := &Groq{
		client: NewTracedClient(),
		apiKey: apiKey,
		lang:   lang,
	}
	// Pre-open the TLS connection so the first utterance doesn't pay the
	// handshake.
	go g.client.WarmConnection(groqURL)
	return g
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) PreferredFormat() encoder.Format { return encoder.FormatFLAC }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, audio []byte, format encoder.Format) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+string(format))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}

	writer.WriteField("model", "whisper-large-v3-turbo")
	writer.WriteField("response_format", "verbose_json")
	if g.lang != "" {
		writer.WriteField("language", g.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	var noSpeechProb, avgLogProb float64
	var segments []Segment
	if len(gResp.Segments) > 0 {
		var logProbSum float64
		for _, seg := range gResp.Segments {
			if seg.NoSpeechProb > noSpeechProb {
				noSpeechProb = seg.NoSpeechProb
			}
			logProbSum += seg.AvgLogProb
			segments = append(segments, Segment{
				Text:         seg.Text,
				NoSpeechProb: seg.NoSpeechProb,
				AvgLogProb:   seg.AvgLogProb,
				Start:        seg.Start,
				End:          seg.End,
			})
		}
		avgLogProb = logProbSum / float64(len(gResp.Segments))
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:         gResp.Text,
		Duration:     gResp.Duration,
		NoSpeechProb: noSpeechProb,
		AvgLogProb:   avgLogProb,
		Segments:     segments,
		Metrics:      resp.Metrics,
		RateLimit:    remaining + "/" + limit,
	}, nil
}
