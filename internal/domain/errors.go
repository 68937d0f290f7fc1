package domain

import "errors"

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyReviewed     = errors.New("application has already been reviewed")
	ErrInvalidStatus       = errors.New("invalid application status")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrAdminExists         = errors.New("admin username already exists")
)
