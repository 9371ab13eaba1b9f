package app

import "errors"

var (
	// ErrInvalidCredentials is returned on any login failure. The message
	// is shown to end users and deliberately does not distinguish an
	// unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("Invalid username or password.")

	// ErrBookNotFound indicates a book lookup by ID found nothing.
	ErrBookNotFound = errors.New("book not found")
)
