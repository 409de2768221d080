// Package runs persists a history of pipeline runs in SQLite and
// guards the workspace against concurrent runs with a file lock.
package runs
