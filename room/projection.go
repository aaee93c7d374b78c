package room

import "github.com/cardtable/threethirteen/engine"

// ProjectedPlayer is one seat's sanitised view: every player other than
// the viewer has their hand redacted to a count (spec.md §4.2.8).
type ProjectedPlayer struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Hand            []engine.Card `json:"hand"`
	HandCount       int          `json:"handCount"`
	RoundScore      int          `json:"roundScore"`
	CumulativeScore int          `json:"cumulativeScore"`
	HasGoneOut      bool         `json:"hasGoneOut"`
}

// Projection is the per-viewer sanitised copy of a GameState sent to one
// participant: the viewer's own hand is disclosed in full, every other
// hand is redacted to a count, and the draw pile is replaced with a
// count. Every other field passes through unchanged.
type Projection struct {
	RoomID      string       `json:"roomId"`
	RoundNumber int          `json:"roundNumber"`
	WildRank    engine.Rank  `json:"wildRank"`

	Phase     engine.GamePhase `json:"phase"`
	TurnPhase engine.TurnPhase `json:"turnPhase"`

	Players            []ProjectedPlayer `json:"players"`
	DealerIndex        int               `json:"dealerIndex"`
	CurrentPlayerIndex int               `json:"currentPlayerIndex"`

	DrawPileCount int           `json:"drawPileCount"`
	DiscardPile   []engine.Card `json:"discardPile"`

	GoneOutPlayerID     *string `json:"goneOutPlayerId"`
	FinalTurnsRemaining int     `json:"finalTurnsRemaining"`

	LastRoundResults     []engine.RoundResult `json:"lastRoundResults"`
	NextRoundConfirmedBy map[string]bool      `json:"nextRoundConfirmedBy"`

	YouPlayerID string `json:"you"`
}

// BuildProjection derives viewerID's sanitised copy of gs. It never
// mutates gs.
func BuildProjection(gs *engine.GameState, viewerID string) Projection {
	players := make([]ProjectedPlayer, len(gs.Players))
	for i, p := range gs.Players {
		pp := ProjectedPlayer{
			ID:              p.ID,
			Name:            p.Name,
			HandCount:       len(p.Hand),
			RoundScore:      p.RoundScore,
			CumulativeScore: p.CumulativeScore,
			HasGoneOut:      p.HasGoneOut,
		}
		if p.ID == viewerID {
			pp.Hand = append([]engine.Card(nil), p.Hand...)
		} else {
			pp.Hand = []engine.Card{}
		}
		players[i] = pp
	}

	return Projection{
		RoomID:               gs.RoomID,
		RoundNumber:          gs.RoundNumber,
		WildRank:             gs.WildRank,
		Phase:                gs.Phase,
		TurnPhase:            gs.TurnPhase,
		Players:              players,
		DealerIndex:          gs.DealerIndex,
		CurrentPlayerIndex:   gs.CurrentPlayerIndex,
		DrawPileCount:        gs.DrawPileCount(),
		DiscardPile:          append([]engine.Card(nil), gs.DiscardPile...),
		GoneOutPlayerID:      gs.GoneOutPlayerID,
		FinalTurnsRemaining:  gs.FinalTurnsRemaining,
		LastRoundResults:     gs.LastRoundResults,
		NextRoundConfirmedBy: gs.NextRoundConfirmedBy,
		YouPlayerID:          viewerID,
	}
}

type gameStateMsg struct {
	Type string     `json:"type"`
	Game Projection `json:"gameState"`
}
