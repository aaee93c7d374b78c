package room

import (
	"fmt"
	"sort"

	"github.com/cardtable/threethirteen/engine"
)

// HandleStartGame initialises a fresh game for roomID from its current
// lobby list. Requires status != IN_GAME and at least engine.MinPlayers
// entrants (spec.md §4.2.4).
func (c *Coordinator) HandleStartGame(roomID string) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
	}
	if r.Status == engine.StatusInGame {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q", ErrRoomInGame, roomID)
	}
	if len(r.LobbyPlayers) < engine.MinPlayers {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q has %d", ErrNotEnoughPlayers, roomID, len(r.LobbyPlayers))
	}

	r.Status = engine.StatusInGame
	r.Game = engine.InitGame(roomID, r.LobbyPlayers, c.rng)
	r.PlayerIDs = make([]string, len(r.Game.Players))
	for i, p := range r.Game.Players {
		r.PlayerIDs[i] = p.ID
	}

	startingMsg := &gameStartingMsg{Type: OutGameStarting, RoomID: roomID, Players: r.LobbyPlayers}
	projections := c.perViewerGameStateMsgs(r.Game)
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	watcherTargets := snapshotChannels(c.lobbyWatchers)
	roomsSnapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	c.mu.Unlock()

	broadcast(roomTargets, startingMsg, c.leaveRoomFailure(roomID))
	c.sendPerViewer(roomTargets, projections, roomID)
	broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
	return nil
}

// perViewerGameStateMsgs builds each participant's sanitised game-state
// message. Callers must hold c.mu.
func (c *Coordinator) perViewerGameStateMsgs(gs *engine.GameState) map[string]*gameStateMsg {
	out := make(map[string]*gameStateMsg, len(gs.Players))
	for _, p := range gs.Players {
		out[p.ID] = &gameStateMsg{Type: OutGameState, Game: BuildProjection(gs, p.ID)}
	}
	return out
}

// sendPerViewer sends each viewer its own message from msgs over the
// channel snapshotted for roomID. A failed send is treated as a
// disconnect via leaveRoomFailure.
func (c *Coordinator) sendPerViewer(targets map[string]Channel, msgs map[string]*gameStateMsg, roomID string) {
	fail := c.leaveRoomFailure(roomID)
	for playerID, ch := range targets {
		msg, ok := msgs[playerID]
		if !ok {
			continue
		}
		if err := ch.Send(msg); err != nil {
			fail(playerID)
		}
	}
}

// withActiveGame locks, validates that roomID has a live game, and hands
// the *engine.GameState to fn for an in-place engine mutation. On
// success it broadcasts the resulting per-viewer projections (followed by
// round_over when the action ended the round) and returns nil; on engine
// error it sends
// {type: error} to playerID only, per spec.md §4.2.5.
func (c *Coordinator) withActiveGame(roomID, playerID string, fn func(gs *engine.GameState) error) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok || r.Status != engine.StatusInGame || r.Game == nil {
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
		}
		return fmt.Errorf("%w: room %q", ErrRoomNotInGame, roomID)
	}

	engineErr := fn(r.Game)
	if engineErr != nil {
		ch := c.roomConnections[roomID][playerID]
		c.mu.Unlock()
		if ch != nil {
			_ = ch.Send(&errorMsg{Type: OutError, Message: engineErr.Error()})
		}
		return nil
	}

	gs := r.Game
	var roundOver *roundOverMsg
	if gs.Phase == engine.PhaseScoring {
		roundOver = &roundOverMsg{Type: OutRoundOver, RoundNumber: gs.RoundNumber, Results: gs.LastRoundResults}
	}
	projections := c.perViewerGameStateMsgs(gs)
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	c.mu.Unlock()

	c.sendPerViewer(roomTargets, projections, roomID)
	if roundOver != nil {
		broadcast(roomTargets, roundOver, c.leaveRoomFailure(roomID))
	}
	return nil
}

// HandleDrawCard dispatches a draw_card action; source selects the pile
// (default "pile").
func (c *Coordinator) HandleDrawCard(roomID, playerID, source string) error {
	return c.withActiveGame(roomID, playerID, func(gs *engine.GameState) error {
		if source == "discard" {
			return engine.DrawFromDiscard(gs, playerID)
		}
		return engine.DrawFromPile(gs, playerID)
	})
}

// HandleDiscardCard dispatches a discard_card action.
func (c *Coordinator) HandleDiscardCard(roomID, playerID, cardID string) error {
	return c.withActiveGame(roomID, playerID, func(gs *engine.GameState) error {
		return engine.Discard(gs, playerID, cardID)
	})
}

// HandleGoOut dispatches a go_out action. A successful go-out also fans
// out player_went_out before the resulting game-state projection, per
// the ordering guarantee in spec.md §5.
func (c *Coordinator) HandleGoOut(roomID, playerID, cardID string) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok || r.Status != engine.StatusInGame || r.Game == nil {
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
		}
		return fmt.Errorf("%w: room %q", ErrRoomNotInGame, roomID)
	}

	gs := r.Game
	player := gs.PlayerByID(playerID)
	var playerName string
	if player != nil {
		playerName = player.Name
	}

	engineErr := engine.GoOut(gs, playerID, cardID)
	if engineErr != nil {
		ch := c.roomConnections[roomID][playerID]
		c.mu.Unlock()
		if ch != nil {
			_ = ch.Send(&errorMsg{Type: OutError, Message: engineErr.Error()})
		}
		return nil
	}

	wentOut := &playerWentOutMsg{Type: OutPlayerWentOut, PlayerID: playerID, PlayerName: playerName, FinalTurnsRemaining: gs.FinalTurnsRemaining}
	var roundOver *roundOverMsg
	if gs.Phase == engine.PhaseScoring {
		roundOver = &roundOverMsg{Type: OutRoundOver, RoundNumber: gs.RoundNumber, Results: gs.LastRoundResults}
	}
	projections := c.perViewerGameStateMsgs(gs)
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	c.mu.Unlock()

	broadcast(roomTargets, wentOut, c.leaveRoomFailure(roomID))
	c.sendPerViewer(roomTargets, projections, roomID)
	if roundOver != nil {
		broadcast(roomTargets, roundOver, c.leaveRoomFailure(roomID))
	}
	return nil
}

// HandleNextRound dispatches a next_round confirmation. Idempotent: a
// player confirming twice is a no-op success. Once every seated player
// has confirmed, advances the round (or finishes the game) and
// broadcasts the outcome (spec.md §4.2.6).
func (c *Coordinator) HandleNextRound(roomID, playerID string) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok || r.Status != engine.StatusInGame || r.Game == nil {
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
		}
		return fmt.Errorf("%w: room %q", ErrRoomNotInGame, roomID)
	}
	gs := r.Game
	if gs.Phase != engine.PhaseScoring && gs.Phase != engine.PhaseFinished {
		c.mu.Unlock()
		return fmt.Errorf("%w: round not yet over", ErrWrongPhase)
	}

	if gs.NextRoundConfirmedBy[playerID] {
		c.mu.Unlock()
		return nil
	}
	if gs.NextRoundConfirmedBy == nil {
		gs.NextRoundConfirmedBy = map[string]bool{}
	}
	gs.NextRoundConfirmedBy[playerID] = true

	allConfirmed := true
	for _, p := range gs.Players {
		if !gs.NextRoundConfirmedBy[p.ID] {
			allConfirmed = false
			break
		}
	}

	if !allConfirmed {
		projections := c.perViewerGameStateMsgs(gs)
		roomTargets := snapshotChannels(c.roomConnections[roomID])
		c.mu.Unlock()
		c.sendPerViewer(roomTargets, projections, roomID)
		return nil
	}

	engine.AdvanceToNextRound(gs, c.rng)

	if gs.Phase == engine.PhaseFinished {
		leaderboard := finalLeaderboard(gs)
		finishedMsg := &gameFinishedMsg{Type: OutGameFinished, Leaderboard: leaderboard}
		roomTargets := snapshotChannels(c.roomConnections[roomID])
		c.mu.Unlock()
		broadcast(roomTargets, finishedMsg, c.leaveRoomFailure(roomID))
		return nil
	}

	projections := c.perViewerGameStateMsgs(gs)
	roomTargets := snapshotChannels(c.roomConnections[roomID])
	c.mu.Unlock()
	c.sendPerViewer(roomTargets, projections, roomID)
	return nil
}

// finalLeaderboard returns one RoundResult per player from the last
// scored round, sorted ascending by cumulative score (lowest wins).
func finalLeaderboard(gs *engine.GameState) []engine.RoundResult {
	board := append([]engine.RoundResult(nil), gs.LastRoundResults...)
	sort.Slice(board, func(i, j int) bool {
		return board[i].CumulativeScore < board[j].CumulativeScore
	})
	return board
}

// HandleEndGame tears roomID's game down and resets it to EMPTY. The
// lobby_reset fan-out bypasses broadcast() entirely: a failed send
// during teardown must not recursively invoke leave_room against a room
// whose indexes are mid-clear (spec.md §4.2.7).
func (c *Coordinator) HandleEndGame(roomID string) error {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: room %q", ErrRoomNotFound, roomID)
	}

	targets := snapshotChannels(c.roomConnections[roomID])
	resetMsg := &lobbyResetMsg{Type: OutLobbyReset, RoomID: roomID}

	for _, playerID := range r.PlayerIDs {
		delete(c.playerRoomMap, playerID)
	}
	r.Status = engine.StatusEmpty
	r.PlayerIDs = nil
	r.LobbyPlayers = nil
	r.Game = nil
	c.roomConnections[roomID] = make(map[string]Channel)

	roomsSnapshot := &roomsUpdateMsg{Type: OutRoomsUpdate, Rooms: c.roomSnapshots()}
	watcherTargets := snapshotChannels(c.lobbyWatchers)
	c.mu.Unlock()

	for _, ch := range targets {
		_ = ch.Send(resetMsg)
	}
	broadcast(watcherTargets, roomsSnapshot, c.UnregisterWatcher)
	return nil
}
