package db

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a profile does not exist
var ErrNotFound = errors.New("profile not found")

// UnsupportedURLError is returned by Open for URLs that name no known backend
type UnsupportedURLError struct {
	Scheme string
}

func (e *UnsupportedURLError) Error() string {
	return fmt.Sprintf("unsupported database scheme %q (want postgres or mysql)", e.Scheme)
}
