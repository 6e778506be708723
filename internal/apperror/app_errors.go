package apperror

import "errors"

var (
	ErrInvalidMove       = errors.New("invalid move")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrGameFinished      = errors.New("game is already finished")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownMode       = errors.New("unknown game mode")
	ErrInvalidMark       = errors.New("invalid mark")
	ErrNoMoveAvailable   = errors.New("no move available")
	ErrSessionIDRequired = errors.New("session id is required")
)
