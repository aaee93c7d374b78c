package wsserver

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cardtable/threethirteen/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires the room.Coordinator to HTTP, exposing the two
// persistent-connection endpoints from spec.md §6.1 plus a couple of
// plain JSON diagnostics routes.
type Server struct {
	coord  *room.Coordinator
	router *mux.Router
}

// New builds a Server whose routes dispatch into coord.
func New(coord *room.Coordinator) *Server {
	s := &Server{coord: coord, router: mux.NewRouter()}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/rooms", s.handleRoomsSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/lobby", s.handleLobbySocket)
	s.router.HandleFunc("/ws/room/{roomID}", s.handleRoomSocket)

	s.router.Use(corsMiddleware)
	return s
}

// ServeHTTP lets Server itself be passed to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "three-thirteen room server"})
}

func (s *Server) handleRoomsSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.coord.RoomsSnapshot())
}

// handleLobbySocket upgrades the connection and registers it as a room-
// list watcher: it receives rooms_update snapshots but is write-silent
// from the client's side (spec.md §6.1).
func (s *Server) handleLobbySocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logf("lobby upgrade failed: %v", err)
		return
	}

	watcherID := uuid.NewString()
	c := newConn(ws, func() { s.coord.UnregisterWatcher(watcherID) })

	go c.writePump()
	s.coord.RegisterWatcher(watcherID, c)
	c.readPump(func([]byte) {})
}

// handleRoomSocket upgrades the connection, joins it to roomID under the
// client-supplied player_id query parameter, and pumps every inbound
// frame into the coordinator's message dispatcher.
func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logf("room upgrade failed: %v", err)
		return
	}

	c := newConn(ws, func() { s.coord.LeaveRoom(roomID, playerID) })
	go c.writePump()

	ok, reason := s.coord.JoinRoom(roomID, playerID, c)
	if !ok {
		_ = c.Send(map[string]string{"type": "error", "message": reason})
		close(c.send)
		return
	}

	c.readPump(func(raw []byte) {
		if err := s.coord.HandleMessage(roomID, playerID, raw); err != nil {
			_ = c.Send(map[string]string{"type": "error", "message": err.Error()})
		}
	})
}
