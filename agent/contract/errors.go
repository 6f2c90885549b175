package contract

import "errors"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrNotFound         = errors.New("not found")
	ErrStore            = errors.New("store failure")
	ErrValidation       = errors.New("validation failed")
)
