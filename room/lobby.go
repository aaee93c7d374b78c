package room

import (
	"fmt"
	"strings"

	"github.com/cardtable/threethirteen/engine"
)

// HandleJoinLobby seats playerID under name in roomID's pre-game lobby.
// A blank (post-trim) name is rejected. An id already present has its
// display name updated in place rather than duplicated (spec.md §4.2.3).
func (c *Coordinator) HandleJoinLobby(roomID, playerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidRequest)
	}

	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
	}
	if r.Status == engine.StatusInGame {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q is in game", ErrRoomInGame, roomID)
	}

	updated := false
	for i, p := range r.LobbyPlayers {
		if p.ID == playerID {
			r.LobbyPlayers[i].Name = name
			updated = true
			break
		}
	}
	if !updated {
		if len(r.LobbyPlayers) >= r.MaxPlayers {
			c.mu.Unlock()
			return fmt.Errorf("%w: room %q is full", ErrRoomFull, roomID)
		}
		r.LobbyPlayers = append(r.LobbyPlayers, engine.LobbyPlayer{ID: playerID, Name: name})
	}
	r.Status = engine.StatusGathering

	lobbyMsg := &lobbyUpdateMsg{Type: OutLobbyUpdate, RoomID: roomID, Players: r.LobbyPlayers, Status: r.Status}
	roomsSnapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	watcherTargets := snapshotChannels(c.lobbyWatchers)
	c.mu.Unlock()

	broadcast(roomTargets, lobbyMsg, c.leaveRoomFailure(roomID))
	broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
	return nil
}

// HandleLeaveLobby removes playerID from roomID's pre-game lobby list. A
// room already in game is left untouched: lobby membership no longer
// applies once play has started.
func (c *Coordinator) HandleLeaveLobby(roomID, playerID string) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
	}
	if r.Status == engine.StatusInGame {
		c.mu.Unlock()
		return nil
	}

	r.LobbyPlayers = removeLobbyPlayer(r.LobbyPlayers, playerID)
	r.PlayerIDs = removeString(r.PlayerIDs, playerID)
	if len(r.LobbyPlayers) == 0 {
		r.Status = engine.StatusEmpty
	}

	lobbyMsg := &lobbyUpdateMsg{Type: OutLobbyUpdate, RoomID: roomID, Players: r.LobbyPlayers, Status: r.Status}
	roomsSnapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	watcherTargets := snapshotChannels(c.lobbyWatchers)
	c.mu.Unlock()

	broadcast(roomTargets, lobbyMsg, c.leaveRoomFailure(roomID))
	broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
	return nil
}
