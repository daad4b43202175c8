package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("caller is not authenticated")

	// Claim-processing errors
	ErrCodeExpired    = errors.New("code has expired")
	ErrAlreadyClaimed = errors.New("code already claimed by this member")
	ErrConflict       = errors.New("code was claimed concurrently")

	// Infra errors
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
