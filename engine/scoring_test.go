package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func card(id string, rank Rank, suit Suit) Card {
	return Card{ID: id, Rank: rank, Suit: suit}
}

func wildCard(id string, rank Rank, suit Suit) Card {
	return Card{ID: id, Rank: rank, Suit: suit, IsWild: true}
}

// S1: 7♥ 7♦ 7♣, wild=three -> 0 (plain set, no wilds involved).
func TestScoreHand_S1(t *testing.T) {
	hand := []Card{
		card("c1", Seven, Hearts),
		card("c2", Seven, Diamonds),
		card("c3", Seven, Clubs),
	}
	assert.Equal(t, 0, ScoreHand(hand, Three))
}

// S2: K♠ alone, wild=three -> 10.
func TestScoreHand_S2(t *testing.T) {
	hand := []Card{card("c1", King, Spades)}
	assert.Equal(t, 10, ScoreHand(hand, Three))
}

// S3: A♠ alone, wild=three -> 15.
func TestScoreHand_S3(t *testing.T) {
	hand := []Card{card("c1", Ace, Spades)}
	assert.Equal(t, 15, ScoreHand(hand, Three))
}

// S4: 5♥ 3♠ 7♥, wild=three -> 0 (the three fills the 6♥ gap in a run).
func TestScoreHand_S4(t *testing.T) {
	hand := []Card{
		card("c1", Five, Hearts),
		card("c2", Three, Spades), // wild by rank
		card("c3", Seven, Hearts),
	}
	assert.Equal(t, 0, ScoreHand(hand, Three))
}

// S5: wild card (3♣) listed first, then 9♦ 10♦ — completeness requires
// exploring the wild as a participant even though it sorts before its
// natural partners.
func TestScoreHand_S5(t *testing.T) {
	hand := []Card{
		card("c1", Three, Clubs), // wild by rank, listed first
		card("c2", Nine, Diamonds),
		card("c3", Ten, Diamonds),
	}
	assert.Equal(t, 0, ScoreHand(hand, Three))
}

// S6: 9♥ 9♦ 9♠ 9♣ 8♥ 10♥, wild=four -> 0 via set{9♦,9♠,9♣} + run{8♥,9♥,10♥}.
func TestScoreHand_S6(t *testing.T) {
	hand := []Card{
		card("c1", Nine, Hearts),
		card("c2", Nine, Diamonds),
		card("c3", Nine, Spades),
		card("c4", Nine, Clubs),
		card("c5", Eight, Hearts),
		card("c6", Ten, Hearts),
	}
	assert.Equal(t, 0, ScoreHand(hand, Four))
}

// S7: same as S6 minus one nine -> 18 unmatched (the nines' set and the
// 8-9-10 hearts run share the nine of hearts, so only one can be formed).
func TestScoreHand_S7(t *testing.T) {
	hand := []Card{
		card("c1", Nine, Hearts),
		card("c2", Nine, Diamonds),
		card("c3", Nine, Spades),
		card("c5", Eight, Hearts),
		card("c6", Ten, Hearts),
	}
	assert.Equal(t, 18, ScoreHand(hand, Four))
}

// S8: 8♣ 9♣ 10♣ K♠, wild=three -> 10 (run of three clubs, king unmatched).
func TestScoreHand_S8(t *testing.T) {
	hand := []Card{
		card("c1", Eight, Clubs),
		card("c2", Nine, Clubs),
		card("c3", Ten, Clubs),
		card("c4", King, Spades),
	}
	assert.Equal(t, 10, ScoreHand(hand, Three))
}

// S9: two distinct-deck 3♦, plus 3♥ 3♠ and two distinct-deck A♦, plus a
// flagged-wild 7♦, wild rank=seven -> 0. Exercises multi-deck card
// identity (two 3♦ from different decks are independent cards).
func TestScoreHand_S9(t *testing.T) {
	hand := []Card{
		card("c1", Three, Diamonds),
		card("c2", Three, Diamonds), // distinct deck instance, same rank+suit
		card("c3", Three, Hearts),
		card("c4", Three, Spades),
		card("c5", Ace, Diamonds),
		card("c6", Ace, Diamonds), // distinct deck instance
		wildCard("c7", Seven, Diamonds),
	}
	assert.Equal(t, 0, ScoreHand(hand, Seven))
}

// S10: J♥ J♠ only — two cards can never form a set or run -> 20.
func TestScoreHand_S10(t *testing.T) {
	hand := []Card{
		card("c1", Jack, Hearts),
		card("c2", Jack, Spades),
	}
	assert.Equal(t, 20, ScoreHand(hand, Three))
}

// Universal property 1: score_hand is invariant under permutation.
func TestScoreHand_PermutationInvariant(t *testing.T) {
	base := []Card{
		card("c1", Nine, Hearts),
		card("c2", Nine, Diamonds),
		card("c3", Nine, Spades),
		card("c4", Nine, Clubs),
		card("c5", Eight, Hearts),
		card("c6", Ten, Hearts),
		card("c7", King, Spades),
	}
	want := ScoreHand(base, Four)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]Card(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ScoreHand(shuffled, Four), "permutation %d changed the score", i)
	}
}

func TestScoreHand_DoesNotMutateInput(t *testing.T) {
	hand := []Card{
		card("c1", Seven, Hearts),
		card("c2", Seven, Diamonds),
		card("c3", Seven, Clubs),
	}
	before := append([]Card(nil), hand...)
	ScoreHand(hand, Three)
	assert.Equal(t, before, hand)
}

func TestScoreHand_RunCannotExceedThirteen(t *testing.T) {
	// A run of all 13 ranks in one suit scores 0 (the three of hearts is
	// wild this round and fills its own slot); adding a 14th distinct card
	// of a different suit can't extend the run and stays unmatched. The
	// extra card is the two of spades: its only set, {2♥, 2♠, 3♥}, would
	// strand the ace of hearts for 15.
	hand := make([]Card, 0, 14)
	for i, r := range RankOrder {
		hand = append(hand, card(rankID(i), r, Hearts))
	}
	hand = append(hand, card("extra", Two, Spades))
	assert.Equal(t, RankPoints[Two], ScoreHand(hand, Three))
}

func rankID(i int) string {
	return "run_" + string(rune('a'+i))
}
