package domain

import "errors"

var (
	// ErrValidation marks a malformed or incomplete submission. Nothing is
	// written or published.
	ErrValidation = errors.New("invalid submission")

	// ErrNotFound marks a reference to a receiver or record that does not
	// exist. Nothing is written or published.
	ErrNotFound = errors.New("referenced record not found")
)
