package services

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDogNotFound        = errors.New("dog not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUserAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrForbidden          = errors.New("not authorized to perform this action")
	ErrValidation         = errors.New("validation failed")
	ErrRequirementsNotMet = errors.New("level requirements not met")
)
