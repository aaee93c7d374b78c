package room

import "github.com/cardtable/threethirteen/engine"

// Inbound message type names (spec.md §6.2).
const (
	MsgJoinLobby  = "join_lobby"
	MsgLeaveLobby = "leave_lobby"
	MsgStartGame  = "start_game"
	MsgEndGame    = "end_game"
	MsgDrawCard   = "draw_card"
	MsgDiscard    = "discard_card"
	MsgGoOut      = "go_out"
	MsgNextRound  = "next_round"
)

// Outbound message type names (spec.md §6.3).
const (
	OutRoomsUpdate    = "rooms_update"
	OutRoomState      = "room_state"
	OutLobbyUpdate    = "lobby_update"
	OutGameStarting   = "game_starting"
	OutGameState      = "game_state"
	OutPlayerWentOut  = "player_went_out"
	OutRoundOver      = "round_over"
	OutGameFinished   = "game_finished"
	OutLobbyReset     = "lobby_reset"
	OutError          = "error"
)

// inboundEnvelope is the generic shape every inbound room-channel
// message is first decoded into, so the type tag can select a typed
// decode.
type inboundEnvelope struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	Source     string `json:"source,omitempty"`
	CardID     string `json:"cardId,omitempty"`
}

type roomsUpdateMsg struct {
	Type  string               `json:"type"`
	Rooms []*engine.RoomState  `json:"rooms"`
}

type roomStateMsg struct {
	Type string             `json:"type"`
	Room *engine.RoomState  `json:"room"`
}

type lobbyUpdateMsg struct {
	Type    string               `json:"type"`
	RoomID  string               `json:"roomId"`
	Players []engine.LobbyPlayer `json:"players"`
	Status  engine.RoomStatus    `json:"status"`
}

type gameStartingMsg struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId"`
	Players []engine.LobbyPlayer `json:"players"`
}

type playerWentOutMsg struct {
	Type                string `json:"type"`
	PlayerID            string `json:"playerId"`
	PlayerName          string `json:"playerName"`
	FinalTurnsRemaining int    `json:"finalTurnsRemaining"`
}

type roundOverMsg struct {
	Type        string                `json:"type"`
	RoundNumber int                   `json:"roundNumber"`
	Results     []engine.RoundResult  `json:"results"`
}

type gameFinishedMsg struct {
	Type        string              `json:"type"`
	Leaderboard []engine.RoundResult `json:"leaderboard"`
}

type lobbyResetMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
