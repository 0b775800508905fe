// Package fault distinguishes operator-fixable startup failures from
// unexpected runtime errors. Precondition failures (missing data file, empty
// dataset, missing adapter) carry a remediation hint and are printed without
// log noise; everything else propagates as an ordinary error.
package fault

import "errors"

// PreconditionError is a fatal startup condition the operator can fix.
type PreconditionError struct {
	Msg  string
	Hint string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// Precondition builds a PreconditionError with a remediation hint.
func Precondition(msg, hint string) error {
	return &PreconditionError{Msg: msg, Hint: hint}
}

// AsPrecondition reports whether err is (or wraps) a PreconditionError.
func AsPrecondition(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
