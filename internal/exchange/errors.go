package exchange

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// Fatal is the zero value so unclassified failures are never retried blindly.
	Fatal Kind = iota
	RateLimited
	Transient
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FetchError is returned by adapters for every failed call.
type FetchError struct {
	Kind     Kind
	Exchange string
	Op       string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Exchange, e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the same request may succeed later unchanged.
func (e *FetchError) IsRetryable() bool {
	return e.Kind == RateLimited || e.Kind == Transient
}

// NewError builds a FetchError.
func NewError(kind Kind, exchange, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Exchange: exchange, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors that are not a *FetchError are Fatal.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Fatal
}
