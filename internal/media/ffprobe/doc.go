// Package ffprobe inspects rendered media files with the ffprobe binary.
//
// The assembler uses it to verify that a finished video carries the
// expected streams and that its duration matches the narration timeline.
package ffprobe
