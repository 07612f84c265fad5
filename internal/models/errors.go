package models

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration      = errors.New("invalid configuration")
	ErrFileNotFound       = errors.New("file not found")
	ErrNoValidContent     = errors.New("no valid content")
	ErrTransient          = errors.New("transient failure")
	ErrAuth               = errors.New("authentication failure")
	ErrResource           = errors.New("resource unavailable")
	ErrIndexBuild         = errors.New("index build failure")
	ErrConcurrentBuild    = errors.New("concurrent build")
	ErrValidation         = errors.New("validation failure")
	ErrNotReady           = errors.New("session not ready")
	ErrCollectionNotFound = errors.New("collection not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
