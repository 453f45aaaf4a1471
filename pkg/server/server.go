package server

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/abennett/letsroll/pkg"
	"github.com/abennett/letsroll/pkg/messages"
)

// DefaultRoll is evaluated for users who join without a notation.
const DefaultRoll = "D20"

var (
	ErrRoomExists    = errors.New("room exists")
	ErrRoomNotExists = errors.New("room does not exist")
)

type Server struct {
	rw       *sync.RWMutex
	upgrader websocket.Upgrader

	rooms map[string]*Room
}

func NewServer() *Server {
	return &Server{
		rw:    &sync.RWMutex{},
		rooms: map[string]*Room{},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "roomName")
	if roomName == "" {
		http.Error(w, "room name is required", http.StatusBadRequest)
		return
	}
	slog.Info("serving request", "roomName", roomName)
	room, err := s.GetRoom(roomName)
	if errors.Is(err, ErrRoomNotExists) {
		room, err = s.NewRoom(roomName)
		if err != nil {
			slog.Error("unable to create new room", "room_name", roomName, "error", err)
			http.Error(w, "unable to create new room", http.StatusInternalServerError)
			return
		}
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error(err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	// Keep connection alive
	room.RunSession(r.Context(), conn)

	room.mu.Lock()
	if len(room.userSessions) == 0 {
		s.rw.Lock()
		delete(s.rooms, roomName)
		s.rw.Unlock()
		slog.Info("closed room", "room", roomName)
	}
	room.mu.Unlock()
}

func (s *Server) NewRoom(name string) (*Room, error) {
	s.rw.Lock()
	defer s.rw.Unlock()
	_, ok := s.rooms[name]
	if ok {
		return nil, ErrRoomExists
	}
	s.rooms[name] = &Room{
		mu:           new(sync.Mutex),
		logger:       slog.With("room", name),
		roller:       pkg.NewRoller(),
		userSessions: make(map[string]userSession),
		Version:      0,
		Name:         name,
		DefaultRoll:  DefaultRoll,
		Rolls:        map[string]messages.RollResult{},
	}
	return s.rooms[name], nil
}

func (s *Server) GetRoom(roomName string) (*Room, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()
	room, ok := s.rooms[roomName]
	if !ok {
		return room, ErrRoomNotExists
	}
	return room, nil
}

func (s *Server) GetRooms() map[string]*Room {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return maps.Clone(s.rooms)
}
