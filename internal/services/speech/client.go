package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyforge/internal/media/wav"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the synthesizer.
type Config struct {
	Endpoint       string
	Voice          string
	SampleRate     int
	TimeoutSeconds int
}

// Clip is a synthesized narration segment as mono PCM16 samples.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Duration returns the exact playback time of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Client wraps the speech synthesis endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			Voice:          strings.TrimSpace(cfg.Voice),
			SampleRate:     cfg.SampleRate,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	SampleRate     int    `json:"sample_rate,omitempty"`
}

// Synthesize converts text to a PCM clip. The response must be a mono 16-bit
// WAV stream; the clip keeps whatever sample rate the server produced.
func (c *Client) Synthesize(ctx context.Context, text string) (Clip, error) {
	var empty Clip
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, errors.New("speech synthesize: text required")
	}
	if c.cfg.Endpoint == "" {
		return empty, errors.New("speech synthesize: endpoint required")
	}

	payload := speechRequest{
		Model:          "kokoro",
		Input:          text,
		Voice:          c.cfg.Voice,
		ResponseFormat: "wav",
		SampleRate:     c.cfg.SampleRate,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("speech synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("speech synthesize: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("speech synthesize: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return empty, fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	rate, samples, err := wav.Decode(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("speech synthesize: %w", err)
	}
	if len(samples) == 0 {
		return empty, errors.New("speech synthesize: empty audio")
	}
	return Clip{SampleRate: rate, Samples: samples}, nil
}

// HealthCheck verifies the endpoint answers a minimal synthesis request.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Synthesize(ctx, "ok")
	return err
}
