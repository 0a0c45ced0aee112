package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
	ErrNotConfigured        = errors.New("service not configured")
	ErrKnowledgeUnavailable = errors.New("knowledge base unavailable")
	ErrIndexNotFound        = errors.New("passage index not found")
	ErrIndexMismatch        = errors.New("passage index mismatch")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
