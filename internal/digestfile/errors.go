package digestfile

import "errors"

var (
	ErrInvalidEvent   = errors.New("invalid event")
	ErrUnknownSource  = errors.New("unknown source")
	ErrInvalidPayload = errors.New("invalid webhook payload")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)
