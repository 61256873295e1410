package filter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes filter and compilation errors.
type ErrorCode string

const (
	// ErrCodeMalformedTree indicates structurally invalid input reached
	// the compiler: a non-document where a document was required, or a
	// non-list value for a list-arity operator. This signals a broken
	// normalizer/validator contract, not a user mistake, and is fatal for
	// the compilation call.
	ErrCodeMalformedTree ErrorCode = "MALFORMED_OPERATOR_TREE"

	// ErrCodeMissingFilters indicates a validated tree compiled to no
	// usable predicate where the operation requires at least one.
	ErrCodeMissingFilters ErrorCode = "MISSING_FILTERS"

	// ErrCodeInvalidOperatorValue indicates an operator value failed its
	// type constraint during strict validation.
	ErrCodeInvalidOperatorValue ErrorCode = "INVALID_OPERATOR_VALUE"
)

// Error is a structured filter error with a code for programmatic handling.
type Error struct {
	Code     ErrorCode
	Message  string
	Operator string // offending operator, if known
	Property string // property the operator applied to, if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Operator != "" {
		return fmt.Sprintf("%s: %s (operator=%s)", e.Code, e.Message, e.Operator)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMalformedTree reports whether err is a malformed operator tree error.
// Uses errors.As to handle wrapped errors.
func IsMalformedTree(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == ErrCodeMalformedTree
}

// IsMissingFilters reports whether err is a missing filters error.
func IsMissingFilters(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == ErrCodeMissingFilters
}

// NewMalformedTreeError creates an Error for structurally invalid input.
func NewMalformedTreeError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMalformedTree,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewMissingFiltersError creates an Error for an operation that required a
// predicate but compiled none. The message nudges toward the most common
// cause: a typo in an operator name that lenient validation dropped.
func NewMissingFiltersError() *Error {
	return &Error{
		Code:    ErrCodeMissingFilters,
		Message: "missing or invalid filters, maybe a typo in a query operator?",
	}
}
