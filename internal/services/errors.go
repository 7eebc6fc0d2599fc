package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks malformed input reaching a pure transformation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrItemProcessing marks a failure confined to one item of a batch.
	ErrItemProcessing = errors.New("item processing failure")
	// ErrInterrupted marks a caller interrupt; batches abort on it.
	ErrInterrupted   = errors.New("interrupted")
	ErrExternal      = errors.New("external service error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrItemProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsInterrupt reports whether err must abort a batch instead of being
// recorded against a single item.
func IsInterrupt(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

// Kind returns a short label for the marker carried by err, used as the
// event type of logged failures.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternal):
		return "external"
	default:
		return "item_processing"
	}
}

func buildDetail(stage, operation, message string) string {
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
