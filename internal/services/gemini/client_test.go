package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{
						map[string]any{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(
		Config{APIKey: "test", BaseURL: baseURL, PromptModel: "prompt-model", StoryModel: "story-model"},
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func TestCompletePromptHitsPromptModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/prompt-model:generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test" {
			t.Fatalf("unexpected api key header %q", got)
		}
		if err := json.NewEncoder(w).Encode(textResponse("a refined prompt")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.CompletePrompt(context.Background(), "a goat on a farm")
	if err != nil {
		t.Fatalf("CompletePrompt returned error: %v", err)
	}
	if text != "a refined prompt" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateStoryDecodesInlineImages(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/story-model:generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		genCfg, _ := req["generationConfig"].(map[string]any)
		if genCfg == nil || genCfg["responseModalities"] == nil {
			t.Fatal("expected responseModalities in request")
		}
		payload := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{
							map[string]any{"text": "**Segment 1:** Once upon a time."},
							map[string]any{"inlineData": map[string]any{
								"mimeType": "image/png",
								"data":     base64.StdEncoding.EncodeToString(imageBytes),
							}},
							map[string]any{"text": "**Segment 2:** The end."},
						},
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GenerateStory(context.Background(), "tell a story")
	if err != nil {
		t.Fatalf("GenerateStory returned error: %v", err)
	}
	if !strings.Contains(result.Text, "Segment 1") || !strings.Contains(result.Text, "Segment 2") {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(result.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(result.Images))
	}
	if result.Images[0].MIMEType != "image/png" {
		t.Fatalf("unexpected mime type %q", result.Images[0].MIMEType)
	}
	if string(result.Images[0].Data) != string(imageBytes) {
		t.Fatal("image bytes not decoded")
	}
}

func TestGenerateSurfacesStatusErrorWithRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CompletePrompt(context.Background(), "anything")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if statusErr.RetryAfter.Seconds() != 7 {
		t.Fatalf("unexpected retry-after %v", statusErr.RetryAfter)
	}
	hint, ok := statusErr.RetryAfterHint()
	if !ok || hint != 7*time.Second {
		t.Fatalf("retry hint = %v ok=%v, want 7s", hint, ok)
	}
}

func TestGenerateRejectsEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"candidates": []any{
				map[string]any{
					"content":      map[string]any{"parts": []any{}},
					"finishReason": "SAFETY",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CompletePrompt(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected finish reason in error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse("```json\n{\"ok\":true}\n```"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestDecodeJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	raw := "Here is the metadata you asked for:\n{\"title\":\"Pip's Adventure\"}\nEnjoy!"
	if err := DecodeJSON(raw, &parsed); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if parsed.Title != "Pip's Adventure" {
		t.Fatalf("unexpected title %q", parsed.Title)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{PromptModel: "m", StoryModel: "m"})
	if _, err := client.CompletePrompt(context.Background(), "x"); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := client.GenerateStory(context.Background(), "x"); err == nil {
		t.Fatal("expected error without api key")
	}
}
