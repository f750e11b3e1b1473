package printer

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a print failure at the point where it happened.
type Kind int

const (
	// KindCancelled means the user or the request aborted printing.
	KindCancelled Kind = iota + 1
	// KindNotFound means no printer was found or it could not be reached.
	KindNotFound
	// KindWriteFailed means the printer was reached but no data got through.
	KindWriteFailed
	// KindUnsupported means the device exposes no writable characteristic.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindNotFound:
		return "not found"
	case KindWriteFailed:
		return "write failed"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified print failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("printer %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("printer %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Outcome is what the user is told about a print attempt.
type Outcome string

const (
	OutcomePrinted   Outcome = "printed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// Message returns the user-facing text for o.
func (o Outcome) Message() string {
	switch o {
	case OutcomePrinted:
		return "Receipt sent to printer."
	case OutcomeCancelled:
		return "Printing was cancelled."
	case OutcomeNotFound:
		return "No printer found. Make sure it is switched on and in range."
	default:
		return "Printing failed. Please try again."
	}
}

// OutcomeOf maps the result of Print to a user outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomePrinted
	}
	var perr *Error
	if !errors.As(err, &perr) {
		return OutcomeFailed
	}
	switch perr.Kind {
	case KindCancelled:
		return OutcomeCancelled
	case KindNotFound:
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}
