package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBusy                = errors.New("session busy")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrUndecodableImage    = errors.New("undecodable image")
	ErrNoCredential        = errors.New("credential not configured")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrTemporary           = errors.New("temporary failure")
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
