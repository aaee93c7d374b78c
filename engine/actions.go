package engine

import (
	"errors"
	"math/rand"
)

// Sentinel validation errors, surfaced to the offending client verbatim
// as {type: error, message: err.Error()} by the room coordinator.
var (
	ErrNotDrawablePhase = errors.New("not in a drawable phase")
	ErrNotPlayablePhase = errors.New("not in a playable phase")
	ErrAlreadyDrawn     = errors.New("you have already drawn")
	ErrMustDrawFirst    = errors.New("you must draw first")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrDrawPileEmpty    = errors.New("draw pile is empty")
	ErrDiscardPileEmpty = errors.New("discard pile is empty")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrHandNotClear     = errors.New("cannot go out: hand has unmatched cards")
)

// DrawFromPile moves the top of the draw pile into the caller's hand and
// advances turn_phase to discard. See spec.md §4.1.3.
func DrawFromPile(gs *GameState, playerID string) error {
	if err := validateDraw(gs, playerID); err != nil {
		return err
	}
	if len(gs.DrawPile) == 0 {
		return ErrDrawPileEmpty
	}
	card := gs.DrawPile[0]
	gs.DrawPile = gs.DrawPile[1:]
	player := gs.PlayerByID(playerID)
	player.Hand = append(player.Hand, card)
	gs.TurnPhase = TurnDiscard
	return nil
}

// DrawFromDiscard moves the top of the discard pile into the caller's
// hand and advances turn_phase to discard.
func DrawFromDiscard(gs *GameState, playerID string) error {
	if err := validateDraw(gs, playerID); err != nil {
		return err
	}
	if len(gs.DiscardPile) == 0 {
		return ErrDiscardPileEmpty
	}
	top := gs.DiscardPile[len(gs.DiscardPile)-1]
	gs.DiscardPile = gs.DiscardPile[:len(gs.DiscardPile)-1]
	player := gs.PlayerByID(playerID)
	player.Hand = append(player.Hand, top)
	gs.TurnPhase = TurnDiscard
	return nil
}

// Discard removes cardID from the caller's hand, pushes it onto the
// discard pile, and advances the turn.
func Discard(gs *GameState, playerID, cardID string) error {
	if err := validateDiscard(gs, playerID); err != nil {
		return err
	}
	player := gs.PlayerByID(playerID)
	card, ok := takeCard(player, cardID)
	if !ok {
		return ErrCardNotInHand
	}
	gs.DiscardPile = append(gs.DiscardPile, card)
	advanceTurn(gs)
	return nil
}

// GoOut discards cardID the same way Discard does, but only if the
// remaining hand scores zero; see spec.md §4.1.3 "go-out branching" for
// the PLAYING vs FINAL_TURNS behaviour difference.
func GoOut(gs *GameState, playerID, cardID string) error {
	if err := validateDiscard(gs, playerID); err != nil {
		return err
	}
	player := gs.PlayerByID(playerID)

	idx := indexOfCard(player.Hand, cardID)
	if idx < 0 {
		return ErrCardNotInHand
	}
	remaining := removeAt(player.Hand, idx)
	if ScoreHand(remaining, gs.WildRank) != 0 {
		return ErrHandNotClear
	}

	card := player.Hand[idx]
	player.Hand = remaining
	gs.DiscardPile = append(gs.DiscardPile, card)
	player.HasGoneOut = true

	if gs.Phase == PhaseFinalTurns {
		// Second (or later) go-out during final turns: scores 0 at
		// round end but does not restart the final-turns sequence.
		advanceTurn(gs)
		return nil
	}

	// First go-out, from PLAYING: open the final-turns window.
	playerIDCopy := playerID
	gs.GoneOutPlayerID = &playerIDCopy
	gs.Phase = PhaseFinalTurns
	gs.FinalTurnsRemaining = len(gs.Players) - 1
	gs.TurnPhase = TurnDraw
	nextPlayer(gs)
	return nil
}

func validateDraw(gs *GameState, playerID string) error {
	if gs.Phase != PhasePlaying && gs.Phase != PhaseFinalTurns {
		return ErrNotDrawablePhase
	}
	if gs.TurnPhase != TurnDraw {
		return ErrAlreadyDrawn
	}
	if gs.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

func validateDiscard(gs *GameState, playerID string) error {
	if gs.Phase != PhasePlaying && gs.Phase != PhaseFinalTurns {
		return ErrNotPlayablePhase
	}
	if gs.TurnPhase != TurnDiscard {
		return ErrMustDrawFirst
	}
	if gs.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// advanceTurn runs after a normal discard: in FINAL_TURNS it consumes one
// final turn and may transition to SCORING; otherwise it just moves to
// the next player.
func advanceTurn(gs *GameState) {
	if gs.Phase == PhaseFinalTurns {
		gs.FinalTurnsRemaining--
		if gs.FinalTurnsRemaining <= 0 {
			gs.Phase = PhaseScoring
			gs.LastRoundResults = ComputeRoundResults(gs)
			return
		}
	}
	nextPlayer(gs)
}

// nextPlayer advances CurrentPlayerIndex clockwise, skipping any player
// who has already gone out while FINAL_TURNS is active, and resets
// turn_phase to draw.
func nextPlayer(gs *GameState) {
	n := len(gs.Players)
	for i := 0; i < n; i++ {
		gs.CurrentPlayerIndex = (gs.CurrentPlayerIndex + 1) % n
		candidate := gs.Players[gs.CurrentPlayerIndex]
		if gs.Phase == PhaseFinalTurns && candidate.HasGoneOut {
			continue
		}
		break
	}
	gs.TurnPhase = TurnDraw
}

// AdvanceToNextRound clears the round-confirmation set and either moves
// to FINISHED (after round 11) or deals the next round: rotates the
// dealer left by one, seats current player at dealer+1, and updates the
// wild rank.
func AdvanceToNextRound(gs *GameState, rng *rand.Rand) {
	gs.NextRoundConfirmedBy = map[string]bool{}
	if gs.RoundNumber >= MaxRound {
		gs.Phase = PhaseFinished
		return
	}

	gs.RoundNumber++
	gs.WildRank = RoundWild[gs.RoundNumber]
	gs.DealerIndex = (gs.DealerIndex + 1) % len(gs.Players)
	gs.CurrentPlayerIndex = (gs.DealerIndex + 1) % len(gs.Players)
	DealRound(gs, rng)
}

func takeCard(player *PlayerState, cardID string) (Card, bool) {
	idx := indexOfCard(player.Hand, cardID)
	if idx < 0 {
		return Card{}, false
	}
	card := player.Hand[idx]
	player.Hand = removeAt(player.Hand, idx)
	return card, true
}

func indexOfCard(hand []Card, cardID string) int {
	for i, c := range hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func removeAt(hand []Card, idx int) []Card {
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	out = append(out, hand[idx+1:]...)
	return out
}
