package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrAPIKeyRequired = errors.New("api key required")
	ErrInvalidAPIKey  = errors.New("invalid or inactive api key")

	ErrAlreadyApproved = errors.New("key request already approved")
	ErrAlreadyDecided  = errors.New("key request already decided")

	ErrDuplicateQuote = errors.New("a quote with this text already exists")
)
