package room

import "github.com/cardtable/threethirteen/engine"

// JoinRoom attaches ch as playerID's connection to roomID. See spec.md
// §4.2.2 for the full branch table: unknown rooms and strangers joining
// an in-progress room are rejected; reconnects and duplicate connects
// just replace the stored channel; a brand new join adds the player to the
// room's participants and moves the room to GATHERING (the named lobby
// list is filled separately by HandleJoinLobby).
func (c *Coordinator) JoinRoom(roomID, playerID string, ch Channel) (bool, string) {
	c.mu.Lock()

	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return false, "room not found"
	}

	if r.Status == engine.StatusInGame {
		if !(containsString(r.PlayerIDs, playerID) || containsLobbyPlayer(r.LobbyPlayers, playerID)) {
			c.mu.Unlock()
			return false, "game already in progress"
		}
		c.attachChannel(roomID, playerID, ch)
		var projection *Projection
		if r.Game != nil {
			p := BuildProjection(r.Game, playerID)
			projection = &p
		}
		c.mu.Unlock()
		if projection != nil {
			_ = ch.Send(&gameStateMsg{Type: OutGameState, Game: *projection})
		}
		return true, ""
	}

	alreadyParticipant := containsString(r.PlayerIDs, playerID)
	if !alreadyParticipant {
		if len(r.PlayerIDs) >= r.MaxPlayers {
			c.mu.Unlock()
			return false, "room is full"
		}
		r.PlayerIDs = append(r.PlayerIDs, playerID)
		r.Status = engine.StatusGathering
	}
	c.attachChannel(roomID, playerID, ch)

	lobbyMsg := &lobbyUpdateMsg{Type: OutLobbyUpdate, RoomID: roomID, Players: r.LobbyPlayers, Status: r.Status}

	var roomsSnapshot *roomsUpdateMsg
	var roomStateBroadcast *roomStateMsg
	var watcherTargets, roomTargets map[string]Channel
	if !alreadyParticipant {
		roomsSnapshot = &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
		roomStateBroadcast = &roomStateMsg{Type: OutRoomState, Room: r}
		watcherTargets = snapshotChannels(c.lobbyWatchers)
		roomTargets = snapshotChannels(c.roomConnections[roomID])
	}
	c.mu.Unlock()

	// spec.md §6.1: every attach to a room that is not in game immediately
	// emits a lobby_update for the target room directly to the newly
	// attached channel, duplicate connect or not. (An in-game reconnect
	// returned above with a game_state instead.)
	_ = ch.Send(lobbyMsg)

	if !alreadyParticipant {
		broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
		broadcast(roomTargets, roomStateBroadcast, c.leaveRoomFailure(roomID))
	}
	return true, ""
}

// attachChannel records ch as playerID's connection for roomID,
// replacing any prior channel, and updates the reverse lookup. Callers
// must hold c.mu.
func (c *Coordinator) attachChannel(roomID, playerID string, ch Channel) {
	c.roomConnections[roomID][playerID] = ch
	c.playerRoomMap[playerID] = roomID
}

// LeaveRoom drops playerID's connection. If the room is mid-game the
// game state is preserved untouched (only the connection count implicitly
// changes); otherwise the player is removed from the room's participant
// and lobby lists. Returns false for an unknown room.
func (c *Coordinator) LeaveRoom(roomID, playerID string) bool {
	c.mu.Lock()

	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	delete(c.roomConnections[roomID], playerID)
	delete(c.playerRoomMap, playerID)

	if r.Status == engine.StatusInGame {
		c.mu.Unlock()
		c.broadcastRoomsUpdate()
		return true
	}

	r.PlayerIDs = removeString(r.PlayerIDs, playerID)
	r.LobbyPlayers = removeLobbyPlayer(r.LobbyPlayers, playerID)
	if len(r.PlayerIDs) == 0 {
		r.Status = engine.StatusEmpty
	} else {
		r.Status = engine.StatusGathering
	}

	roomsSnapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	watcherTargets := snapshotChannels(c.lobbyWatchers)
	lobbyMsg := &lobbyUpdateMsg{Type: OutLobbyUpdate, RoomID: roomID, Players: r.LobbyPlayers, Status: r.Status}
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	c.mu.Unlock()

	broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
	broadcast(roomTargets, lobbyMsg, c.leaveRoomFailure(roomID))
	return true
}

// leaveRoomFailure builds an onFailure callback that treats a send
// failure to a room participant as a disconnect.
func (c *Coordinator) leaveRoomFailure(roomID string) func(playerID string) {
	return func(playerID string) {
		c.LeaveRoom(roomID, playerID)
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsLobbyPlayer(players []engine.LobbyPlayer, id string) bool {
	for _, p := range players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func removeString(ss []string, s string) []string {
	out := make([]string, 0, len(ss))
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func removeLobbyPlayer(players []engine.LobbyPlayer, id string) []engine.LobbyPlayer {
	out := make([]engine.LobbyPlayer, 0, len(players))
	for _, p := range players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
