package engine

// ComputeRoundResults scores every player's hand (the player who went
// out scores 0), accumulates into CumulativeScore, and returns one
// RoundResult per player in seating order.
func ComputeRoundResults(gs *GameState) []RoundResult {
	results := make([]RoundResult, 0, len(gs.Players))
	for _, player := range gs.Players {
		points := 0
		if !player.HasGoneOut {
			points = ScoreHand(player.Hand, gs.WildRank)
		}
		player.RoundScore = points
		player.CumulativeScore += points

		results = append(results, RoundResult{
			PlayerID:        player.ID,
			PlayerName:      player.Name,
			RoundPoints:     points,
			CumulativeScore: player.CumulativeScore,
			PenaltyCards:    unmatchedCards(player.Hand, gs.WildRank),
		})
	}
	return results
}
