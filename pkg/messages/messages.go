package messages

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrMessageInvalid     = errors.New("message was invalid")
	ErrUnknownMessageType = errors.New("unknown message type")
)

type Type int

const (
	StateMsgType Type = iota
	DoneRequestType
	RollRequestType
	RerollRequestType
)

type Message struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused
	Type     Type     `msgpack:"type"`
	Version  string   `msgpack:"version"`
	Payload  any
}

func (m *Message) UnmarshalMsgpack(b []byte) error {
	decoder := msgpack.NewDecoder(bytes.NewReader(b))
	l, err := decoder.DecodeArrayLen()
	if err != nil {
		return err
	}
	if l != 3 {
		return fmt.Errorf("%w: expected 3 fields, got %d", ErrMessageInvalid, l)
	}
	t, err := decoder.DecodeInt()
	if err != nil {
		return err
	}
	m.Type = Type(t)

	if m.Version, err = decoder.DecodeString(); err != nil {
		return err
	}

	switch m.Type {
	case DoneRequestType:
		var done DoneRequest
		if err = decoder.Decode(&done); err != nil {
			return err
		}
		m.Payload = done
	case StateMsgType:
		var room RoomState
		if err = decoder.Decode(&room); err != nil {
			return err
		}
		m.Payload = room
	case RollRequestType:
		var roll RollRequest
		if err = decoder.Decode(&roll); err != nil {
			return err
		}
		m.Payload = roll
	case RerollRequestType:
		var reroll RerollRequest
		if err = decoder.Decode(&reroll); err != nil {
			return err
		}
		m.Payload = reroll
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMessageType, t)
	}
	return nil
}

// RoomState is the full shared view of a room, broadcast after every
// change.
type RoomState struct {
	Version int          `msgpack:"version"`
	Name    string       `msgpack:"name"`
	Rolls   []RollResult `msgpack:"rolls"`
}

// RollRequest opens a session: the user joins and submits the dice
// notation they want evaluated. An empty Roll uses the room's default
// notation.
type RollRequest struct {
	User string `msgpack:"user"`
	Roll string `msgpack:"roll"`
}

// RollResult is one user's evaluated report.
type RollResult struct {
	User     string `msgpack:"user"`
	Notation string `msgpack:"notation"`
	Result   string `msgpack:"result"`
	IsDone   bool   `msgpack:"is_done"`
}

// DoneRequest toggles the user's done flag.
type DoneRequest struct {
	User string `msgpack:"user"`
}

// RerollRequest re-evaluates the user's notation with fresh rolls.
type RerollRequest struct {
	User string `msgpack:"user"`
}
