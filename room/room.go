// Package room implements the Room Coordinator: it owns a fixed
// population of rooms, multiplexes lobby watchers and room participants
// over injected Channel connections, routes in-game actions into the
// engine package, and publishes per-viewer projections. All mutation
// happens under a single coordinator-wide mutex, matching spec.md §5's
// "one big lock" discipline.
package room

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/cardtable/threethirteen/engine"
)

// Channel is the abstract bidirectional connection a coordinator sends
// outbound messages on. The concrete WebSocket implementation lives in
// package wsserver; room never imports it, so the coordinator can be
// exercised in tests with an in-memory fake.
type Channel interface {
	Send(v any) error
}

// Coordinator owns every room's state and the connection indexes used to
// fan messages out to watchers and participants.
type Coordinator struct {
	mu sync.Mutex

	rooms     map[string]*engine.RoomState
	roomOrder []string

	roomConnections map[string]map[string]Channel // roomID -> playerID -> channel
	lobbyWatchers   map[string]Channel             // watcherID -> channel
	playerRoomMap   map[string]string              // playerID -> roomID

	rng *rand.Rand
}

// NewCoordinator builds the fixed table of engine.NumRooms rooms
// ("room-1".."room-N", display name "Room i"), per spec.md §6.4.
func NewCoordinator(rng *rand.Rand) *Coordinator {
	c := &Coordinator{
		rooms:           make(map[string]*engine.RoomState, engine.NumRooms),
		roomOrder:       make([]string, 0, engine.NumRooms),
		roomConnections: make(map[string]map[string]Channel, engine.NumRooms),
		lobbyWatchers:   make(map[string]Channel),
		playerRoomMap:   make(map[string]string),
		rng:             rng,
	}
	for i := 1; i <= engine.NumRooms; i++ {
		id := roomID(i)
		c.rooms[id] = &engine.RoomState{
			RoomID:     id,
			RoomName:   fmt.Sprintf("Room %d", i),
			Status:     engine.StatusEmpty,
			MaxPlayers: engine.MaxPlayers,
			MinPlayers: engine.MinPlayers,
		}
		c.roomOrder = append(c.roomOrder, id)
		c.roomConnections[id] = make(map[string]Channel)
	}
	return c
}

func roomID(i int) string {
	return fmt.Sprintf("room-%d", i)
}

// roomSnapshots returns every room's current RoomState in table order.
// Callers must hold c.mu.
func (c *Coordinator) roomSnapshots() []*engine.RoomState {
	out := make([]*engine.RoomState, 0, len(c.roomOrder))
	for _, id := range c.roomOrder {
		out = append(out, c.rooms[id])
	}
	return out
}

// RoomsSnapshot is the exported counterpart of roomSnapshots for HTTP
// diagnostics callers that cannot take c.mu themselves.
func (c *Coordinator) RoomsSnapshot() []*engine.RoomState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomSnapshots()
}

func logf(format string, args ...any) {
	log.Printf("room: "+format, args...)
}
