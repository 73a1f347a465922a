package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client is closed")
	ErrRateLimited     = errors.New("Too many messages")
	ErrInvalidState    = errors.New("invalid session state transition")
)
