// Package gemini provides a generateContent client for the Google generative
// language API.
//
// This package is used by:
//   - Prompt stage: refine a raw topic into a structured image-story prompt
//   - Story stage: generate narration text interleaved with scene images
//   - Metadata stage: derive upload metadata as JSON
//
// # Request Shape
//
// Requests POST to {base_url}/models/{model}:generateContent with the API key
// in the x-goog-api-key header. Story requests ask for TEXT and IMAGE
// response modalities; images come back as base64 inline data parts.
//
// # Retry Behaviour
//
// The client performs exactly one attempt per call. Bounded retry with
// backoff belongs to the stage layer; see services.RetryPolicy. A shared
// rate limiter spaces requests to respect the configured requests-per-minute
// budget across all models.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompletePrompt: text-only completion on the prompt model.
// Client.GenerateStory: multimodal generation on the story model.
// Client.CompleteJSON: JSON completion on the prompt model.
// Client.HealthCheck: verify the API key and prompt model are usable.
package gemini
