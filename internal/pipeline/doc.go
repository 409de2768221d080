// Package pipeline orchestrates a full story-video run.
//
// Stages execute as a task graph: the refined prompt feeds story
// generation, then narration synthesis and metadata derivation run
// concurrently, and assembly waits for both. A branch failure skips
// assembly but lets the sibling branch settle, so a run reports exactly
// one terminal error.
package pipeline
