package room

import "errors"

// Sentinel errors surfaced to the offending client as {type: error,
// message: err.Error()}; see spec.md §4.2.5 "on engine error, send to the
// caller only, never broadcast".
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomInGame      = errors.New("room already in game")
	ErrRoomNotInGame   = errors.New("room has no active game")
	ErrRoomFull        = errors.New("room is full")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrWrongPhase      = errors.New("action not valid in the current phase")
)
