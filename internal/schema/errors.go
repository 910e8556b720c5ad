package schema

import (
	"errors"
	"fmt"
	"strings"
)

type Stage string

const (
	StageInput  Stage = "input"
	StageOutput Stage = "output"
)

type Problem struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Field == "" {
		return p.Message
	}
	return p.Field + ": " + p.Message
}

// ValidationError reports a request or a model response that does not match
// its declared object. It is never retried.
type ValidationError struct {
	Stage    Stage
	Schema   string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("invalid %s for %s: %s", e.Stage, e.Schema, strings.Join(parts, "; "))
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
