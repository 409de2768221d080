// Package storygen drives the content service to produce a validated story.
//
// This is the pipeline's primary reliability boundary: raw service output is
// untrusted until it passes the structural gate in package story. A
// generation attempt that returns malformed output counts as a retryable
// failure exactly like a network error; only a gate-passing story is
// accepted. When the attempt budget runs out the stage fails with
// ErrGenerationExhausted and the run aborts.
package storygen
