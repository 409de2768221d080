// Package render assembles the final video from story images and the
// narration timeline.
//
// Each image becomes a Ken Burns shot whose on-screen window is derived
// from the narration offsets, shots are joined with crossfades, and the
// narration track is muxed in. A thumbnail is rendered from the hero
// image. All ffmpeg invocations go through an injectable command runner
// so tests can assert command assembly without media tooling installed.
package render
