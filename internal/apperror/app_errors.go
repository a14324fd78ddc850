package apperror

import "errors"

var (
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameNotFinished  = errors.New("game is not finished yet")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell coordinate")
	ErrDuplicateMove    = errors.New("move already applied")
	ErrStaleMove        = errors.New("move targets a previous game")

	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFull       = errors.New("session already has two players")
	ErrSessionClosed     = errors.New("session is closed")
	ErrNotInSession      = errors.New("player is not in a session")
	ErrAlreadyStarted    = errors.New("session already started")
	ErrDifficultyLocked  = errors.New("difficulty can't be changed once the game started")
	ErrDifficultyNotSet  = errors.New("difficulty must be selected before the game starts")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrNoTurn            = errors.New("no turn published for session")
	ErrWrongMode         = errors.New("operation is not supported in this session mode")
)
