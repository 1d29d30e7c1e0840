package quantity

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/sphfetch/formula"
)

// Every error returned by this package because of an invalid request wraps
// one of these. Use errors.Is to tell them apart.
var (
	ErrUnknownQuantity = errors.New("unknown quantity")
	ErrDimensionality  = errors.New("too few dimensions")
	ErrLiveOnly        = errors.New("only available for live snapshots")
	ErrTypeMismatch    = errors.New("quantity kind mismatch")
	ErrUnknownUnit     = errors.New("unknown unit")

	ErrMalformedFormula = formula.ErrMalformed
	ErrUnknownVariable  = formula.ErrUnknownVariable
)

// Error is a failed request for a named quantity.
type Error struct {
	Quantity string
	Err      error // One of the Err* values above.
	Cause    error // Underlying error, may be nil.

	msg string
}

func newError(
	err error, quantity string, cause error, format string, args ...interface{},
) *Error {
	return &Error{
		Quantity: quantity, Err: err, Cause: cause,
		msg: fmt.Sprintf(format, args...),
	}
}

func (err *Error) Error() string {
	if err.Cause == nil {
		return err.msg
	}
	return err.msg + " " + err.Cause.Error()
}

func (err *Error) Unwrap() []error {
	if err.Cause == nil {
		return []error{err.Err}
	}
	return []error{err.Err, err.Cause}
}
