package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout       = 120 * time.Second
	defaultRequestsPerMinute = 10
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey            string
	BaseURL           string
	PromptModel       string
	StoryModel        string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// Client wraps the generative language generateContent API. All methods
// perform a single attempt; callers own retry.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
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

// WithLimiter overrides the request rate limiter (useful for tests).
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimSpace(cfg.BaseURL),
			PromptModel:       strings.TrimSpace(cfg.PromptModel),
			StoryModel:        strings.TrimSpace(cfg.StoryModel),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerMinute: rpm,
		},
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// InlineImage is a base64-decoded image part from a multimodal response.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// StoryResult carries the concatenated narration text and the scene images in
// response order.
type StoryResult struct {
	Text   string
	Images []InlineImage
}

// StatusError reports a non-2xx API response. RetryAfter carries the server's
// requested delay when the response included one.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// RetryAfterHint reports the server-requested delay when the response
// carried one, satisfying services.RetryAfterHinter.
func (e *StatusError) RetryAfterHint() (time.Duration, bool) {
	return e.RetryAfter, e.RetryAfter > 0
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, response_snippet=%s)", e.Op, e.FinishReason, e.Snippet)
}

// CompletePrompt issues a text-only completion on the prompt model.
func (c *Client) CompletePrompt(ctx context.Context, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", errors.New("gemini complete: instruction required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini complete: api key required")
	}
	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: instruction}}}},
	}
	result, err := c.generate(ctx, c.cfg.PromptModel, payload, "gemini complete")
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// CompleteJSON issues a JSON-only completion on the prompt model with the
// supplied system and user prompts. It returns the raw JSON payload produced
// by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", errors.New("gemini complete json: system prompt required")
	}
	if userPrompt == "" {
		return "", errors.New("gemini complete json: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini complete json: api key required")
	}
	payload := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
		},
	}
	result, err := c.generate(ctx, c.cfg.PromptModel, payload, "gemini complete json")
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// GenerateStory issues a multimodal generation on the story model, returning
// the narration text and scene images in response order.
func (c *Client) GenerateStory(ctx context.Context, prompt string) (StoryResult, error) {
	var empty StoryResult
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return empty, errors.New("gemini story: prompt required")
	}
	if c.cfg.APIKey == "" {
		return empty, errors.New("gemini story: api key required")
	}
	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	return c.generate(ctx, c.cfg.StoryModel, payload, "gemini story")
}

// HealthCheck issues a fast ping to verify the API key and prompt model are
// usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini health: api key required")
	}
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", "Respond with {\"ok\":true}")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("gemini health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("gemini health: unexpected response")
	}
	return nil
}

type generateContentRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) generate(ctx context.Context, model string, payload generateContentRequest, op string) (StoryResult, error) {
	var empty StoryResult
	if strings.TrimSpace(model) == "" {
		return empty, fmt.Errorf("%s: model required", op)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return empty, err
		}
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", model+":generateContent")
	if err != nil {
		return empty, fmt.Errorf("%s: build url: %w", op, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("%s: http error: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return empty, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if decoded.Error != nil {
		return empty, fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(decoded.Error.Message))
	}

	result, finishReason := extractResult(decoded)
	if result.Text == "" && len(result.Images) == 0 {
		return empty, &emptyContentError{
			Op:           op,
			FinishReason: finishReason,
			Snippet:      summarizeSnippet(string(body)),
		}
	}
	return result, nil
}

func extractResult(decoded generateContentResponse) (StoryResult, string) {
	var result StoryResult
	var finishReason string
	var text strings.Builder
	for _, candidate := range decoded.Candidates {
		if finishReason == "" {
			finishReason = strings.TrimSpace(candidate.FinishReason)
		}
		for _, p := range candidate.Content.Parts {
			if t := strings.TrimSpace(p.Text); t != "" {
				if text.Len() > 0 {
					text.WriteByte('\n')
				}
				text.WriteString(t)
			}
			if p.InlineData != nil && p.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					continue
				}
				result.Images = append(result.Images, InlineImage{
					MIMEType: p.InlineData.MIMEType,
					Data:     data,
				})
			}
		}
	}
	result.Text = text.String()
	return result, finishReason
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
