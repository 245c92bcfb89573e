package domain

import "errors"

var (
	ErrInvalidCode     = errors.New("invalid room code")
	ErrInvalidName     = errors.New("invalid member name")
	ErrInvalidVote     = errors.New("invalid vote value")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNameConflict    = errors.New("name already taken")
	ErrNotAMember      = errors.New("not a member of this room")
	ErrTargetNotFound  = errors.New("target member not found")
	ErrUnauthenticated = errors.New("no session")
)
