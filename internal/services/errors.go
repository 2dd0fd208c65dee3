package services

import "errors"

var (
	ErrFrameNotFound      = errors.New("frame not found")
	ErrLensNotFound       = errors.New("lens not found")
	ErrReferenceNotFound  = errors.New("reference item not found")
	ErrDuplicateReference = errors.New("reference item already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrImageNotFound      = errors.New("image not found")
	ErrInvalidImage       = errors.New("invalid image file")
	ErrImageRejected      = errors.New("image rejected by content screening")
	ErrNoImages           = errors.New("at least one image is required")
)
