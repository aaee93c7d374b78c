package engine

import "sort"

// ScoreHand returns the minimum total penalty achievable by partitioning
// hand into legal sets/runs (wilds substituting freely); cards left
// outside every combination contribute their rank's penalty value. It is
// a pure function — hand is never mutated, and the result is invariant
// under every permutation of hand (universal property 1).
func ScoreHand(hand []Card, wildRank Rank) int {
	return penalty(bestPartition(hand, wildRank))
}

// unmatchedCards returns which cards of hand fall outside the optimal
// partition, used by ComputeRoundResults to report leftover cards.
func unmatchedCards(hand []Card, wildRank Rank) []Card {
	return bestPartition(hand, wildRank)
}

func penalty(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += RankPoints[c.Rank]
	}
	return total
}

// bestPartition is a branch-and-bound search over (remaining, unmatched):
// at each step the head card either joins a combination formed from the
// rest of the remaining cards, or is left unmatched. The all-unmatched
// partition is the starting upper bound.
func bestPartition(hand []Card, wildRank Rank) []Card {
	best := append([]Card(nil), hand...)

	var search func(remaining, unmatched []Card)
	search = func(remaining, unmatched []Card) {
		if len(remaining) == 0 {
			if penalty(unmatched) < penalty(best) {
				best = append([]Card(nil), unmatched...)
			}
			return
		}

		head := remaining[0]
		rest := remaining[1:]

		for _, combo := range setsContaining(head, rest, wildRank) {
			search(removeByID(rest, combo), unmatched)
		}
		for _, combo := range runsContaining(head, rest, wildRank) {
			search(removeByID(rest, combo), unmatched)
		}

		// Leave the head card unmatched.
		search(rest, append(append([]Card(nil), unmatched...), head))
	}

	search(append([]Card(nil), hand...), nil)
	return best
}

// setsContaining returns every legal set of size >= 3 that includes card
// and draws its remaining members from others. Subsets (not prefixes) of
// others are enumerated so a wild that sorts earlier than its natural
// partners in the slice is still found.
func setsContaining(card Card, others []Card, wildRank Rank) [][]Card {
	if isWild(card, wildRank) {
		return wildAnchoredCombos(card, others, wildRank, func(anchor Card, pool []Card) [][]Card {
			return setsContaining(anchor, pool, wildRank)
		})
	}

	sameRank := make([]Card, 0, len(others))
	for _, c := range others {
		if c.Rank == card.Rank || isWild(c, wildRank) {
			sameRank = append(sameRank, c)
		}
	}

	var results [][]Card
	for size := 2; size <= len(sameRank); size++ {
		for _, combo := range combinations(sameRank, size) {
			results = append(results, append([]Card{card}, combo...))
		}
	}
	return results
}

// runsContaining returns every legal run of size >= 3 (capped at 13) that
// includes card. For a natural card the run must share its suit, with
// wilds filling gaps or extending either end; for a wild card, the search
// delegates to every natural card in others as a substitute anchor.
func runsContaining(card Card, others []Card, wildRank Rank) [][]Card {
	if isWild(card, wildRank) {
		return wildAnchoredCombos(card, others, wildRank, func(anchor Card, pool []Card) [][]Card {
			return runsContaining(anchor, pool, wildRank)
		})
	}

	suit := card.Suit
	cardPos := rankPosition[card.Rank]

	var wilds, suitCards []Card
	for _, c := range others {
		if isWild(c, wildRank) {
			wilds = append(wilds, c)
		} else if c.Suit == suit {
			suitCards = append(suitCards, c)
		}
	}

	var results [][]Card
	lo := cardPos - 12
	if lo < 0 {
		lo = 0
	}
	for start := lo; start <= cardPos; start++ {
		for length := 3; length <= 13; length++ {
			end := start + length
			if end > len(RankOrder) {
				break
			}
			window := RankOrder[start:end]
			if !containsRank(window, card.Rank) {
				continue
			}

			usedReal := map[string]bool{}
			var combo []Card
			availableWilds := append([]Card(nil), wilds...)
			ok := true
			for _, rank := range window {
				if rank == card.Rank {
					continue
				}
				real, found := findUnused(suitCards, rank, usedReal)
				if found {
					usedReal[real.ID] = true
					combo = append(combo, real)
					continue
				}
				if len(availableWilds) > 0 {
					combo = append(combo, availableWilds[0])
					availableWilds = availableWilds[1:]
					continue
				}
				ok = false
				break
			}
			if ok {
				full := append([]Card{card}, combo...)
				if len(full) >= 3 {
					results = append(results, full)
				}
			}
		}
	}
	return results
}

// wildAnchoredCombos handles a wild card being explored first: it
// delegates to every natural card among others as a substitute anchor
// (passing the wild along as a participant), plus — for both set and run
// search — pure-wild combinations when three or more wilds are available
// with no natural partner required.
func wildAnchoredCombos(card Card, others []Card, wildRank Rank, anchoredSearch func(anchor Card, pool []Card) [][]Card) [][]Card {
	seen := map[string]bool{}
	var results [][]Card

	var nonWilds []Card
	for _, c := range others {
		if !isWild(c, wildRank) {
			nonWilds = append(nonWilds, c)
		}
	}

	for _, anchor := range nonWilds {
		pool := make([]Card, 0, len(others))
		pool = append(pool, card)
		for _, c := range others {
			if c.ID != anchor.ID {
				pool = append(pool, c)
			}
		}
		for _, combo := range anchoredSearch(anchor, pool) {
			key := comboKey(combo)
			if !seen[key] {
				seen[key] = true
				results = append(results, combo)
			}
		}
	}

	var otherWilds []Card
	for _, c := range others {
		if isWild(c, wildRank) {
			otherWilds = append(otherWilds, c)
		}
	}
	for size := 2; size <= len(otherWilds); size++ {
		group := append([]Card{card}, otherWilds[:size]...)
		if len(group) >= 3 {
			key := comboKey(group)
			if !seen[key] {
				seen[key] = true
				results = append(results, group)
			}
		}
	}

	return results
}

func comboKey(cards []Card) string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	key := ""
	for _, id := range ids {
		key += id + "\x00"
	}
	return key
}

func containsRank(window []Rank, r Rank) bool {
	for _, w := range window {
		if w == r {
			return true
		}
	}
	return false
}

func findUnused(cards []Card, rank Rank, used map[string]bool) (Card, bool) {
	for _, c := range cards {
		if c.Rank == rank && !used[c.ID] {
			return c, true
		}
	}
	return Card{}, false
}

// combinations returns every size-k subset of cards, preserving relative
// order within each subset.
func combinations(cards []Card, k int) [][]Card {
	if k == 0 {
		return [][]Card{{}}
	}
	if len(cards) < k {
		return nil
	}
	first, rest := cards[0], cards[1:]
	var out [][]Card
	for _, combo := range combinations(rest, k-1) {
		out = append(out, append([]Card{first}, combo...))
	}
	out = append(out, combinations(rest, k)...)
	return out
}
