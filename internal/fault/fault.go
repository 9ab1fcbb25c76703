package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure by the stage responsibility it
// belongs to, independent of which package produced it.
type Kind int

const (
	ErrUnknown Kind = iota
	ErrGeneration
	ErrValidation
	ErrSynthesis
	ErrAssembly
	ErrConfig
)

func (k Kind) String() string {
	switch k {
	case ErrGeneration:
		return "Generation"
	case ErrValidation:
		return "Validation"
	case ErrSynthesis:
		return "Synthesis"
	case ErrAssembly:
		return "Assembly"
	case ErrConfig:
		return "Config"
	case ErrUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Error is the one error type the pipeline surfaces. The Context map carries
// ad-hoc details (stage, section kind, ordinal) for logs and tests.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsKind reports whether err (or anything it wraps) is a fault of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first fault in err's chain, or ErrUnknown
// when the chain holds no fault.
func KindOf(err error) Kind {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind
	}
	return ErrUnknown
}
