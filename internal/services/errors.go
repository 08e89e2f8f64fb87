package services

import (
	"errors"

	"life-os/internal/database"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func invalidDate(field, value string) error {
	return &database.ValidationError{Field: field, Reason: "must be YYYY-MM-DD, got " + value}
}
