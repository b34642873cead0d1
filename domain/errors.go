package domain

import "errors"

var (
	// ErrInvalidInput marks a scenario the caller got wrong.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidProfile marks a deployment defect in the bank profile.
	ErrInvalidProfile = errors.New("invalid bank profile")
)
