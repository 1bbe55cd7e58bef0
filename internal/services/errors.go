package services

import "errors"

var (
	// ErrNotJoinable is returned when a group buy is completed or past its deadline.
	ErrNotJoinable = errors.New("group buy is no longer accepting orders")
	// ErrInvalidQuantity is returned for join quantities outside the allowed range.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
)
