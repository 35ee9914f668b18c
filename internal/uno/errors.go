package uno

import "errors"

// ValidationError is a recoverable rule violation. It is reported back to the
// player who caused it and never mutates game state.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(msg string) *ValidationError { return &ValidationError{msg: msg} }

var (
	ErrNotYourTurn      = newValidationError("it is not your turn")
	ErrCardNotInHand    = newValidationError("that card is not in your hand")
	ErrCardDoesNotMatch = newValidationError("that card does not match the top card")
	ErrLobbyFull        = newValidationError("the lobby is full")
	ErrAlreadyJoined    = newValidationError("you already joined this game")
	ErrNotEnoughPlayers = newValidationError("at least 2 players are needed to start")
	ErrGameRunning      = newValidationError("the game has already started")
	ErrGameNotRunning   = newValidationError("the game has not started yet")
	ErrNotInGame        = newValidationError("you are not part of this game")
	ErrNoPendingWild    = newValidationError("there is no wild card awaiting a color")
	ErrInvalidColor     = newValidationError("pick one of: Red, Green, Blue, Yellow")
	ErrNotCreator       = newValidationError("only the session creator may do that")
	ErrNoActiveSession  = newValidationError("no active uno session in this chat")

	// ErrColorChoicePending blocks any further action by a player whose wild
	// play is suspended; the recorded hand index must stay valid until the
	// color reply commits it.
	ErrColorChoicePending = newValidationError("pick a color for your wild card first")
)

// IsValidation reports whether err is a player-facing rule violation rather
// than a resource or transport failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Resource errors. These should be unreachable while every card stays in
// exactly one of deck, discard or a hand; callers treat them as fatal to the
// affected game.
var (
	ErrEmptyDeck       = errors.New("draw deck is empty")
	ErrNoCardsToRefill = errors.New("discard pile too small to refill the deck")
)

// ErrSessionExists rejects a second lobby in the same chat.
var ErrSessionExists = errors.New("an uno session already exists in this chat")
