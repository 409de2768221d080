// Package logging assembles structured slog loggers used across storyforge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and resolves the "auto" format by detecting whether stdout is a
// terminal. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits log lines with the same shape.
package logging
