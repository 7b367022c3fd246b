package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Stable strings, safe to switch on.
const (
	ErrCodeInvalidContainerSpec  = "INVALID_CONTAINER_SPEC"
	ErrCodeIncompleteAssignment  = "INCOMPLETE_ASSIGNMENT"
	ErrCodeDuplicateLock         = "DUPLICATE_LOCK"
	ErrCodeUnknownContainer      = "UNKNOWN_CONTAINER"
	ErrCodeShipmentClosed        = "SHIPMENT_CLOSED"
	ErrCodeRoleNotPermitted      = "ROLE_NOT_PERMITTED"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeMissingResolution     = "MISSING_RESOLUTION"
	ErrCodeSigningDeclined       = "SIGNING_DECLINED"
	ErrCodeShipmentNotFound      = "SHIPMENT_NOT_FOUND"
	ErrCodeConcernNotFound       = "CONCERN_NOT_FOUND"
	ErrCodeContainersNotAdvanced = "CONTAINERS_NOT_ADVANCED"
	ErrCodeConcernBlocks         = "CONCERN_BLOCKS_ADVANCE"
)

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a domain error.
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewTransitionError creates a transition rejection carrying the actor
// role and the attempted transition.
func NewTransitionError(code, role, from, to string) *Error {
	if code == ErrCodeRoleNotPermitted {
		return &Error{
			Code:    code,
			Message: fmt.Sprintf("role %q is not permitted to advance %s to %s", role, from, to),
		}
	}
	if to == "" {
		return &Error{
			Code:    code,
			Message: fmt.Sprintf("no forward transition from %s", from),
		}
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("invalid transition from %s to %s", from, to),
	}
}

// Common sentinel errors.
var (
	ErrInvalidContainerSpec = NewError(ErrCodeInvalidContainerSpec, "container count and quantity per container must be at least 1")
	ErrIncompleteAssignment = NewError(ErrCodeIncompleteAssignment, "shipment needs both a transporter and a warehouse assigned before locking")
	ErrDuplicateLock        = NewError(ErrCodeDuplicateLock, "a ledger record already exists for this shipment")
	ErrMissingResolution    = NewError(ErrCodeMissingResolution, "a resolution is required to resolve a concern")
	ErrShipmentNotFound     = NewError(ErrCodeShipmentNotFound, "shipment not found")
	ErrConcernNotFound      = NewError(ErrCodeConcernNotFound, "concern not found")
)

// ErrCode extracts the domain error code from err, or "" if err is not a
// domain error.
func ErrCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
