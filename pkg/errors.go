package pkg

import "errors"

var (
	// ErrParse covers malformed top-level syntax: unknown action
	// keywords, unterminated groups, bad identifiers, mixed value lists.
	ErrParse = errors.New("parse error")
	// ErrParseDice covers a malformed dice sub-token.
	ErrParseDice = errors.New("dice parse error")
	// ErrIncompatibleAction is returned when an action variant is not
	// defined for the session's roll type, or when an action follows a
	// terminal aggregation.
	ErrIncompatibleAction = errors.New("incompatible action")
	// ErrBadDice covers invalid dice construction.
	ErrBadDice = errors.New("bad dice")
	// ErrBadActionParameter covers keep/reroll counts exceeding the
	// number of available values.
	ErrBadActionParameter = errors.New("bad action parameter")
)
