package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrValidation        = errors.New("invalid product data")
	ErrRemote            = errors.New("products API request failed")
	ErrMalformedResponse = errors.New("malformed product in API response")
)

// ValidationError maps draft field names to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RemoteError is a failed call to the products API: a transport failure
// (Status 0) or a non-success status.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: products API returned status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemote, e.Err}
	}
	return []error{ErrRemote}
}
