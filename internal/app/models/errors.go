package models

import "errors"

// Domain specific errors shared across services and handlers.
var (
	ErrNotFound         = errors.New("requested item not found")
	ErrConflict         = errors.New("item already exists or conflict")
	ErrUnauthenticated  = errors.New("authentication required or invalid credentials")
	ErrBadRequest       = errors.New("bad request")
	ErrValidation       = errors.New("validation failed")
	ErrDataSource       = errors.New("candidate data source missing or unreadable")
	ErrInsufficientData = errors.New("not enough rows to rank candidates")
	ErrInvalidDateRange = errors.New("invalid trip date range")
	ErrPersistence      = errors.New("persistence failed, transaction rolled back")
	ErrExternalService  = errors.New("external collaborator failed or timed out")
)
