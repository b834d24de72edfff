package query

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPlanningInconsistency marks a criterion the planner failed to place. It is a defect, not bad input.
var ErrPlanningInconsistency = errors.New("planning inconsistency")

// ParseError rejects a filter or order token, an unresolvable path or an uncoercible literal.
type ParseError struct {
	Token  string
	Reason string
	Err    error
}

func NewParseError(token, reason string, err error) *ParseError {
	return &ParseError{Token: token, Reason: reason, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %q: %s: %v", e.Token, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %q: %s", e.Token, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TranslationError means the store could not express a criterion the planner sent to it.
type TranslationError struct {
	Criterion string
	Reason    string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("cannot translate %s: %s", e.Criterion, e.Reason)
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
