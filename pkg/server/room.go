package server

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abennett/letsroll/pkg"
	"github.com/abennett/letsroll/pkg/messages"
)

const (
	PingInterval = 5 * time.Second
)

type userSession struct {
	wg      *sync.WaitGroup
	logger  *slog.Logger
	name    string
	writeCh chan []byte
}

// Room is one shared rolling table. Every user evaluates their own
// notation against the room's roller and sees everyone's reports.
type Room struct {
	mu           *sync.Mutex
	logger       *slog.Logger
	roller       *pkg.Roller
	userSessions map[string]userSession

	Version     int
	Name        string
	DefaultRoll string
	Rolls       map[string]messages.RollResult
}

func (r *Room) RunSession(ctx context.Context, conn *websocket.Conn) {
	_, b, err := conn.ReadMessage()
	if err != nil {
		r.logger.Error("failed to read initial message", "error", err)
		return
	}

	var msg messages.Message
	if err = msgpack.Unmarshal(b, &msg); err != nil {
		r.logger.Error("failed to parse initial message", "error", err, "payload", string(b))
		return
	}

	req, ok := msg.Payload.(messages.RollRequest)
	if !ok {
		r.logger.Error("initial message was incorrect", "payload", string(b))
		return
	}

	name := req.User
	r.logger.Debug("starting a session", "user", name, "roll", req.Roll)
	writeCh := make(chan []byte, 1)
	session := userSession{
		wg:      new(sync.WaitGroup),
		logger:  slog.With("user", req.User),
		name:    req.User,
		writeCh: writeCh,
	}

	r.startUserSession(ctx, session, conn)

	err = r.Update(r.Roll(name, req.Roll))
	if err != nil {
		r.logger.Error(err.Error())
		return
	}

	session.wg.Wait()
	r.stopUserSession(session)
	r.logger.Info("closing session", "active_sessions", len(r.userSessions), "user", name)
}

// Roll evaluates a user's notation with the room's roller. Evaluation
// failures are surfaced as the user's visible result, never swallowed.
func (r *Room) Roll(user, notation string) messages.RollResult {
	if notation == "" {
		notation = r.DefaultRoll
	}
	r.mu.Lock()
	report, err := pkg.EvaluateWith(r.roller, notation, pkg.Options{})
	r.mu.Unlock()
	if err != nil {
		report = "FAILURE: " + err.Error()
	}
	return messages.RollResult{
		User:     user,
		Notation: notation,
		Result:   report,
	}
}

func (r *Room) startUserSession(ctx context.Context, session userSession, conn *websocket.Conn) {
	r.mu.Lock()
	r.userSessions[session.name] = session
	r.mu.Unlock()

	// Add to the waitGroup outside of goroutines here to avoid race condition on Add
	ctx, cancel := context.WithCancel(ctx)
	session.wg.Add(2)
	go r.userReadLoop(cancel, session, conn)
	go r.userWriteLoop(ctx, session, conn)
}

func (r *Room) stopUserSession(session userSession) {
	r.mu.Lock()
	delete(r.userSessions, session.name)
	r.mu.Unlock()
}

func (r *Room) userReadLoop(cancel func(), session userSession, conn *websocket.Conn) {
	defer cancel()
	defer session.wg.Done()
	defer session.logger.Debug("closing read loop")

	for {
		t, b, err := conn.ReadMessage()
		if closeErr, ok := err.(*websocket.CloseError); ok {
			if closeErr.Code == websocket.CloseNormalClosure {
				session.logger.Info("close message received")
				return
			}
		}
		if err != nil {
			r.logger.Error("failure in user read loop", "error", err)
			return
		}

		switch t {
		case websocket.CloseMessage:
			session.logger.Info("close message received")
			return
		case websocket.BinaryMessage:
			session.logger.Debug("binary message received")
			if err := r.HandleBinaryMessage(b); err != nil {
				session.logger.Error("failed handling message", "error", err)
			}
		}
	}
}

// HandleBinaryMessage dispatches mid-session requests: toggling the
// done flag and rerolling.
func (r *Room) HandleBinaryMessage(b []byte) error {
	var msg messages.Message
	err := msgpack.Unmarshal(b, &msg)
	if err != nil {
		return messages.ErrMessageInvalid
	}

	switch payload := msg.Payload.(type) {
	case messages.DoneRequest:
		return r.Update(payload)
	case messages.RerollRequest:
		r.mu.Lock()
		current, ok := r.Rolls[payload.User]
		r.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: no roll for user %s", messages.ErrMessageInvalid, payload.User)
		}
		return r.Update(r.Roll(payload.User, current.Notation))
	}
	return messages.ErrUnknownMessageType
}

func (r *Room) userWriteLoop(ctx context.Context, session userSession, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer session.wg.Done()
	defer session.logger.Debug("closing write loop")
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			session.logger.Debug("write loop is done")
			return
		case b := <-session.writeCh:
			session.logger.Debug("writing message")
			err := conn.WriteMessage(websocket.BinaryMessage, b)
			if err != nil {
				r.logger.Error(err.Error())
				return
			}
		case <-ticker.C:
			session.logger.Debug("writing ping message")
			err := conn.WriteMessage(websocket.PingMessage, []byte{})
			if err == websocket.ErrCloseSent {
				session.logger.Debug("error close was sent")
				return
			}
			if err != nil {
				session.logger.Error("ping failed", "error", err)
				return
			}
		}
	}
}

func (r *Room) Update(update any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch u := update.(type) {
	case messages.RollResult:
		r.Rolls[u.User] = u
		r.logger.Debug("added roll", "active_sessions", len(r.userSessions), "user", u.User)
	case messages.DoneRequest:
		roll, ok := r.Rolls[u.User]
		if !ok {
			err := fmt.Errorf("no roll to mark done for user %s", u.User)
			r.logger.Error(err.Error())
			return err
		}
		roll.IsDone = !roll.IsDone
		r.Rolls[u.User] = roll
		r.logger.Debug("toggled done", "user", u.User, "is_done", roll.IsDone)
	default:
		err := fmt.Errorf("unknown update type: %T", update)
		r.logger.Error(err.Error())
		return err
	}

	r.Version++

	msg := messages.Message{
		Type:    messages.StateMsgType,
		Version: "1",
		Payload: r.ToState(),
	}
	b, err := msgpack.Marshal(msg)
	if err != nil {
		r.logger.Error("failed marshalling room", "error", err)
		return err
	}

	for _, us := range r.userSessions {
		r.logger.Debug("pushing update", "user", us.name, "version", r.Version)
		us.writeCh <- b
	}
	return nil
}

func (r *Room) ToState() messages.RoomState {
	rolls := make([]messages.RollResult, len(r.Rolls))
	var i int
	for _, roll := range r.Rolls {
		rolls[i] = roll
		i++
	}
	slices.SortFunc(rolls, func(a, b messages.RollResult) int {
		return cmp.Compare(a.User, b.User)
	})
	return messages.RoomState{
		Version: r.Version,
		Name:    r.Name,
		Rolls:   rolls,
	}
}
