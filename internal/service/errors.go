package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("you do not have access to this resource")
	ErrListingNotFound = errors.New("listing not found")
	ErrRoomNotFound    = errors.New("room not found for this listing")
	ErrKYCRequired     = errors.New("complete KYC verification before booking")
	ErrNoBedsAvailable = errors.New("no beds available for the selected dates")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotPending      = errors.New("booking is not awaiting payment")
	ErrPaymentRequired = errors.New("booking has no successful payment")
	ErrInvalidStatus   = errors.New("status change not allowed")
)

// ValidationError carries field-level messages for the error payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
