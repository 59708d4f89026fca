package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBlankQuery indicates a query that is empty after trimming
	ErrBlankQuery = fmt.Errorf("%w: query is blank", ErrInvalidRequest)
	// ErrNotConnected indicates the backend socket is not connected
	ErrNotConnected = errors.New("backend not connected")
)
