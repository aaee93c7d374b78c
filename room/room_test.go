package room

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/threethirteen/engine"
)

// fakeChannel records every message sent to it. Setting fail makes every
// Send call return an error, simulating a dead transport.
type fakeChannel struct {
	mu   sync.Mutex
	sent []any
	fail bool
}

func (f *fakeChannel) Send(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("transport closed")
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeChannel) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		b, _ := json.Marshal(m)
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(b, &env)
		out[i] = env.Type
	}
	return out
}

func (f *fakeChannel) last() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func newTestCoordinator(seed int64) *Coordinator {
	return NewCoordinator(rand.New(rand.NewSource(seed)))
}

func joinLobby(t *testing.T, c *Coordinator, roomID, playerID, name string) *fakeChannel {
	t.Helper()
	ch := &fakeChannel{}
	ok, msg := c.JoinRoom(roomID, playerID, ch)
	require.True(t, ok, msg)
	require.NoError(t, c.HandleJoinLobby(roomID, playerID, name))
	return ch
}

// F4: a participant's connection drops and reconnects while a game is in
// progress; the room state is untouched and the reconnecting client
// replays its own game-state projection directly (not a broadcast).
func TestFlow_F4_ReconnectDuringGame(t *testing.T) {
	c := newTestCoordinator(1)
	const room = "room-1"
	chA := joinLobby(t, c, room, "A", "Alice")
	_ = joinLobby(t, c, room, "B", "Bob")

	require.NoError(t, c.HandleStartGame(room))
	require.Contains(t, chA.types(), OutGameState)

	// Simulate a disconnect: leave, then rejoin with a fresh channel.
	require.True(t, c.LeaveRoom(room, "A"))
	newChA := &fakeChannel{}
	ok, msg := c.JoinRoom(room, "A", newChA)
	require.True(t, ok, msg)

	require.Len(t, newChA.sent, 1)
	gsMsg, ok := newChA.last().(*gameStateMsg)
	require.True(t, ok)
	assert.Equal(t, "A", gsMsg.Game.YouPlayerID)

	c.mu.Lock()
	status := c.rooms[room].Status
	playerCount := len(c.rooms[room].PlayerIDs)
	c.mu.Unlock()
	assert.Equal(t, engine.StatusInGame, status)
	assert.Equal(t, 2, playerCount)
}

// F5: a stranger cannot join a room whose game is already underway.
func TestFlow_F5_StrangerRejectedFromInGameRoom(t *testing.T) {
	c := newTestCoordinator(2)
	const room = "room-1"
	_ = joinLobby(t, c, room, "A", "Alice")
	_ = joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))

	stranger := &fakeChannel{}
	ok, msg := c.JoinRoom(room, "C", stranger)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

// F6: handle_end_game tears a room fully down and fans lobby_reset out
// to every connected participant, then the room is immediately
// rejoinable as a fresh lobby.
func TestFlow_F6_EndGameResetsRoom(t *testing.T) {
	c := newTestCoordinator(3)
	const room = "room-1"
	chA := joinLobby(t, c, room, "A", "Alice")
	chB := joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))

	require.NoError(t, c.HandleEndGame(room))

	assert.Contains(t, chA.types(), OutLobbyReset)
	assert.Contains(t, chB.types(), OutLobbyReset)

	c.mu.Lock()
	r := c.rooms[room]
	status := r.Status
	playerCount := len(r.PlayerIDs)
	game := r.Game
	_, stillMapped := c.playerRoomMap["A"]
	c.mu.Unlock()
	assert.Equal(t, engine.StatusEmpty, status)
	assert.Equal(t, 0, playerCount)
	assert.Nil(t, game)
	assert.False(t, stillMapped)

	// Room is immediately usable again.
	chC := joinLobby(t, c, room, "C", "Carl")
	assert.Contains(t, chC.types(), OutLobbyUpdate)
}

// F7: round 11 completing and every player confirming next_round drives
// the game to FINISHED with a leaderboard sorted ascending by
// cumulative score.
func TestFlow_F7_FinishesAfterRoundEleven(t *testing.T) {
	c := newTestCoordinator(4)
	const room = "room-1"
	_ = joinLobby(t, c, room, "A", "Alice")
	_ = joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))

	c.mu.Lock()
	gs := c.rooms[room].Game
	gs.RoundNumber = engine.MaxRound
	gs.Phase = engine.PhaseScoring
	gs.LastRoundResults = []engine.RoundResult{
		{PlayerID: "A", PlayerName: "Alice", CumulativeScore: 50},
		{PlayerID: "B", PlayerName: "Bob", CumulativeScore: 10},
	}
	c.mu.Unlock()

	require.NoError(t, c.HandleNextRound(room, "A"))
	require.NoError(t, c.HandleNextRound(room, "B"))

	c.mu.Lock()
	phase := c.rooms[room].Game.Phase
	c.mu.Unlock()
	assert.Equal(t, engine.PhaseFinished, phase)
}

// handle_next_round is idempotent: confirming twice from the same player
// does not advance the round and does not error.
func TestHandleNextRound_Idempotent(t *testing.T) {
	c := newTestCoordinator(5)
	const room = "room-1"
	_ = joinLobby(t, c, room, "A", "Alice")
	_ = joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))

	c.mu.Lock()
	c.rooms[room].Game.Phase = engine.PhaseScoring
	c.mu.Unlock()

	require.NoError(t, c.HandleNextRound(room, "A"))
	require.NoError(t, c.HandleNextRound(room, "A"))

	c.mu.Lock()
	confirmedCount := len(c.rooms[room].Game.NextRoundConfirmedBy)
	roundNumber := c.rooms[room].Game.RoundNumber
	c.mu.Unlock()
	assert.Equal(t, 1, confirmedCount)
	assert.Equal(t, 1, roundNumber)
}

// Leaving an IN_GAME room drops the connection without emitting a
// lobby_update: the room's lobby membership is frozen once play starts.
func TestLeaveRoom_InGameDoesNotEmitLobbyUpdate(t *testing.T) {
	c := newTestCoordinator(6)
	const room = "room-1"
	chA := joinLobby(t, c, room, "A", "Alice")
	_ = joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))

	startCount := len(chA.types())
	require.True(t, c.LeaveRoom(room, "B"))

	assert.NotContains(t, chA.types()[startCount:], OutLobbyUpdate)
}

// I9 property: a room's Status follows the lifecycle automaton EMPTY ->
// GATHERING (first join) -> IN_GAME (start, with a game attached) -> EMPTY
// (end, game cleared).
func TestRoomStatusAutomaton(t *testing.T) {
	c := newTestCoordinator(7)
	const room = "room-1"

	c.mu.Lock()
	assert.Equal(t, engine.StatusEmpty, c.rooms[room].Status)
	c.mu.Unlock()

	_ = joinLobby(t, c, room, "A", "Alice")
	c.mu.Lock()
	assert.Equal(t, engine.StatusGathering, c.rooms[room].Status)
	c.mu.Unlock()

	_ = joinLobby(t, c, room, "B", "Bob")
	require.NoError(t, c.HandleStartGame(room))
	c.mu.Lock()
	assert.Equal(t, engine.StatusInGame, c.rooms[room].Status)
	assert.NotNil(t, c.rooms[room].Game)
	c.mu.Unlock()

	require.NoError(t, c.HandleEndGame(room))
	c.mu.Lock()
	assert.Equal(t, engine.StatusEmpty, c.rooms[room].Status)
	assert.Nil(t, c.rooms[room].Game)
	c.mu.Unlock()
}

// A send failure to one participant during a broadcast does not prevent
// delivery to its siblings, and the failed connection is treated as a
// disconnect.
func TestBroadcast_FailureIsolation(t *testing.T) {
	c := newTestCoordinator(8)
	const room = "room-1"
	chA := joinLobby(t, c, room, "A", "Alice")
	chB := joinLobby(t, c, room, "B", "Bob")
	chA.fail = true

	require.NoError(t, c.HandleStartGame(room))

	assert.NotEmpty(t, chB.types())

	c.mu.Lock()
	_, aStillConnected := c.roomConnections[room]["A"]
	c.mu.Unlock()
	assert.False(t, aStillConnected)
}

// spec.md §6.2: an unrecognized type is ignored, not surfaced as an error.
func TestHandleMessage_UnknownTypeIsIgnored(t *testing.T) {
	c := newTestCoordinator(9)
	const room = "room-1"
	_ = joinLobby(t, c, room, "A", "Alice")

	err := c.HandleMessage(room, "A", []byte(`{"type":"not_a_real_message"}`))
	assert.NoError(t, err)

	c.mu.Lock()
	status := c.rooms[room].Status
	c.mu.Unlock()
	assert.Equal(t, engine.StatusGathering, status)
}

func TestHandleMessage_DispatchesJoinLobby(t *testing.T) {
	c := newTestCoordinator(10)
	const room = "room-1"
	ch := &fakeChannel{}
	ok, msg := c.JoinRoom(room, "A", ch)
	require.True(t, ok, msg)

	raw, err := json.Marshal(map[string]string{"type": MsgJoinLobby, "playerName": "Alice"})
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(room, "A", raw))

	c.mu.Lock()
	names := c.rooms[room].LobbyPlayers
	c.mu.Unlock()
	require.Len(t, names, 1)
	assert.Equal(t, "Alice", names[0].Name)
}
