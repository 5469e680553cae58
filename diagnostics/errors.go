package diagnostics

import (
	"errors"
	"fmt"
)

var (
	ErrModuleFailure   = errors.New("module failure")
	ErrTypeFailure     = errors.New("type failure")
	ErrMethodFailure   = errors.New("method failure")
	ErrCallableFailure = errors.New("callable failure")
)

// Failure is the error returned by every pipeline stage. Kind and Message
// mirror what the stage wrote into the diagnostics Record.
type Failure struct {
	Kind    Kind
	Message string
	// Cause is the underlying error, when one exists.
	Cause error
}

// NewFailure creates a Failure of the given kind.
func NewFailure(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// against either.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Cause != nil {
		errs = append(errs, f.Cause)
	}
	return errs
}

// KindOf returns the Kind carried by err, or None when err is nil or not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return None
}
