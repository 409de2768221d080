// Package speech provides a client for an OpenAI-compatible text-to-speech
// endpoint such as a local Kokoro server.
//
// The client requests WAV output and decodes it to PCM samples so the audio
// stage can measure exact durations and splice silence gaps at the sample
// level. Each call performs a single attempt; the audio stage owns retry via
// services.RetryPolicy.
package speech
