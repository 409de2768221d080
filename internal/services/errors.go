package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExhaustedError reports that a retried operation ran out of attempts. It
// preserves the attempt count and the final underlying cause so stages can
// translate it into their own sentinel errors.
type ExhaustedError struct {
	Stage    string
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	detail := buildDetail(e.Stage, e.Op, "")
	if e.Last != nil {
		return fmt.Sprintf("%s: exhausted %d attempts: %v", detail, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s: exhausted %d attempts", detail, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsExhausted reports whether err carries an ExhaustedError anywhere in its
// chain.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

func buildDetail(stage, operation string, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
