package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Classification enumerates the failure categories a stage attempt can end in.
type Classification string

const (
	ClassTransient   Classification = "transient_provider_error"
	ClassInvalid     Classification = "invalid_input"
	ClassQuota       Classification = "quota_exceeded"
	ClassUnsupported Classification = "unsupported_content"
	ClassUnknown     Classification = "unknown"
)

// Sentinel markers adapters and executors wrap their failures with. The
// orchestrator classifies via errors.Is, so wrapping preserves the marker
// through any number of fmt.Errorf %w layers.
var (
	ErrTransient   = errors.New("transient provider error")
	ErrInvalid     = errors.New("invalid input")
	ErrQuota       = errors.New("quota exceeded")
	ErrUnsupported = errors.New("unsupported content")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. A nil marker defaults to
// ErrTransient.
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

// ClassificationOf maps an error to its failure classification. Timeouts and
// cancellations count as transient; unmarked errors are unknown.
func ClassificationOf(err error) Classification {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalid):
		return ClassInvalid
	case errors.Is(err, ErrUnsupported):
		return ClassUnsupported
	case errors.Is(err, ErrQuota):
		return ClassQuota
	case errors.Is(err, ErrTransient):
		return ClassTransient
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ClassTransient
	case isNetTimeout(err):
		return ClassTransient
	default:
		return ClassUnknown
	}
}

// Retryable reports whether the orchestrator may re-attempt a stage that
// failed with this classification.
func (c Classification) Retryable() bool {
	switch c {
	case ClassTransient, ClassQuota, ClassUnknown:
		return true
	default:
		return false
	}
}

// Reason returns the short human-readable failure reason surfaced to the
// requester. Raw provider messages never cross this boundary.
func (c Classification) Reason() string {
	switch c {
	case ClassTransient:
		return "a provider was temporarily unavailable"
	case ClassInvalid:
		return "the request was invalid"
	case ClassQuota:
		return "a provider quota was exhausted"
	case ClassUnsupported:
		return "the source content is not supported"
	default:
		return "an unexpected error occurred"
	}
}

// Message extracts the detail text of a classified error with the marker
// prefix removed, for operator-facing storage (never for requester display).
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrTransient, ErrInvalid, ErrQuota, ErrUnsupported} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
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
