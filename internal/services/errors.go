package services

import "errors"

// Handlers map these to HTTP statuses or websocket error frames.
var (
	ErrSelfRoom          = errors.New("cannot create a room with yourself")
	ErrUserNotFound      = errors.New("user not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrForbidden         = errors.New("only the room creator can update the room")
	ErrAuthorization     = errors.New("you do not have access to this room")
	ErrNotPrivateRoom    = errors.New("room is not a two-party private room")
	ErrRoomInvariant     = errors.New("private rooms can only have 2 participants")
	ErrInvalidMembership = errors.New("private room members must be the creator and exactly one other user")
	ErrEmptyMessage      = errors.New("Message cannot be empty")
	ErrMessageTooLong    = errors.New("message text exceeds 1000 characters")
	ErrInvalidPage       = errors.New("invalid page")
	ErrUnsupportedFilter = errors.New("unsupported room filter")
)
