package engine

import (
	"fmt"
	"math/rand"
)

// BuildDeck produces the shuffled multi-deck card set for a game of n
// players in the given round: one deck per decksForPlayers(n), each deck
// iterating every (suit, rank) pair once, with cards of the round's wild
// rank tagged IsWild. rng must be non-nil; callers thread a single
// injected *rand.Rand through so shuffles stay deterministic under test.
func BuildDeck(numPlayers, roundNumber int, rng *rand.Rand) []Card {
	wildRank := RoundWild[roundNumber]
	numDecks := decksForPlayers(numPlayers)

	cards := make([]Card, 0, numDecks*len(AllSuits)*len(RankOrder))
	for deckIdx := 0; deckIdx < numDecks; deckIdx++ {
		for _, suit := range AllSuits {
			for _, rank := range RankOrder {
				cards = append(cards, Card{
					ID:     fmt.Sprintf("%s_%s_%d", rank, suit, deckIdx),
					Suit:   suit,
					Rank:   rank,
					IsWild: rank == wildRank,
				})
			}
		}
	}

	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// InitGame creates a fresh round-1 GameState for roomID from a seated
// lobby player list, randomising seating order via rng. Callers must
// enforce MinPlayers before calling (spec.md §9 open question: the
// naive "1 % len(players)" starting-index rule degenerates for a single
// player, so the minimum is enforced by the room coordinator instead).
func InitGame(roomID string, lobbyPlayers []LobbyPlayer, rng *rand.Rand) *GameState {
	seated := make([]LobbyPlayer, len(lobbyPlayers))
	copy(seated, lobbyPlayers)
	rng.Shuffle(len(seated), func(i, j int) {
		seated[i], seated[j] = seated[j], seated[i]
	})

	players := make([]*PlayerState, len(seated))
	for i, p := range seated {
		players[i] = &PlayerState{ID: p.ID, Name: p.Name}
	}

	gs := &GameState{
		RoomID:               roomID,
		RoundNumber:          1,
		WildRank:             RoundWild[1],
		Players:              players,
		DealerIndex:          0,
		CurrentPlayerIndex:   1 % len(players),
		NextRoundConfirmedBy: map[string]bool{},
	}
	DealRound(gs, rng)
	return gs
}

// DealRound deals CardsForRound(gs.RoundNumber) cards to each player,
// turns the next card face up as the initial discard, and resets every
// per-round flag. It mutates gs in place.
func DealRound(gs *GameState, rng *rand.Rand) {
	cardsToDeal := CardsForRound(gs.RoundNumber)
	deck := BuildDeck(len(gs.Players), gs.RoundNumber, rng)

	for _, p := range gs.Players {
		p.Hand = append([]Card(nil), deck[:cardsToDeal]...)
		deck = deck[cardsToDeal:]
		p.HasGoneOut = false
		p.RoundScore = 0
	}

	gs.DiscardPile = []Card{deck[0]}
	gs.DrawPile = deck[1:]
	gs.Phase = PhasePlaying
	gs.TurnPhase = TurnDraw
	gs.GoneOutPlayerID = nil
	gs.FinalTurnsRemaining = 0
	gs.LastRoundResults = nil
}

// CardsForRound returns how many cards each player is dealt in round R:
// R+2 (round 1 -> 3 cards, round 11 -> 13 cards).
func CardsForRound(round int) int {
	return round + 2
}
