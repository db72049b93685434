package exam

import "errors"

var (
	ErrInvalidState    = errors.New("session already submitted")
	ErrNotStarted      = errors.New("session not started")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrMalformedTest   = errors.New("malformed test definition")
)
