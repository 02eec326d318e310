package chat

import "errors"

var (
	ErrInvalidMode      = errors.New("unknown notification mode")
	ErrInvalidQuietHour = errors.New("quiet hour out of range")
)
