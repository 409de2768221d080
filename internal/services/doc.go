// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so failures carry
//     consistent stage and operation context.
//   - The RetryPolicy that every stage uses for bounded retry with doubling,
//     jittered backoff. Service clients perform single attempts; retry policy
//     lives here and nowhere else.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
