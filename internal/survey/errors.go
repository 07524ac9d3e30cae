package survey

import "errors"

var (
	ErrEmptyNickname   = errors.New("please enter a valid nickname")
	ErrUnexpectedEvent = errors.New("event not allowed in current phase")
	ErrUnknownEvent    = errors.New("unknown event type")
)
