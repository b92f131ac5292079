package seatscore

import (
	"maps"
	"math"
	"slices"
)

// RankResult reports the outcome of one ranking confirmation for one player.
type RankResult struct {
	PlayerID string `json:"playerId"`
	Position int    `json:"position"`
	Delta    int    `json:"delta"`
	Rate     int    `json:"rate"`
}

// ApplyRanking updates ratings and titles from a seat's finishing order
// (index 0 = winner). For each player the delta is twice the number of
// positions gained against the previous recorded rank, with three
// adjustments: a ±8 override when a previously ranked first/last player
// swaps to the opposite extreme, a ×0.8 dampening (floored) for players
// rated 80 or above, and a +2 upset bonus for out-placing the top-rated
// player's previous rank. Ratings never drop below MinRate.
//
// New last ranks are recorded only after every delta has been computed, so
// each delta is measured against ranks from the previous round. Player ids
// without a record are skipped. Not idempotent: dampening and the upset
// bonus read live ratings, so callers must run this at most once per
// confirmed ranking.
func ApplyRanking(players map[string]*PlayerRecord, order []string) []RankResult {
	results := make([]RankResult, 0, len(order))

	for i, id := range order {
		p, ok := players[id]
		if !ok {
			continue
		}

		prev := p.LastRank
		ranked := prev > 0
		if !ranked {
			// Never ranked: treat as having finished in the worst
			// possible previous position.
			prev = len(order)
		}

		point := (prev - (i + 1)) * 2

		// First-to-last and last-to-first overrides only apply to
		// players with a genuinely recorded previous rank.
		if ranked && prev == 1 && i == len(order)-1 {
			point = -8
		}
		if ranked && prev == len(order) && i == 0 {
			point = 8
		}

		if p.Rate >= 80 {
			point = int(math.Floor(float64(point) * 0.8))
		}

		if topID := TopRated(players); topID != "" {
			top := players[topID]
			if top.LastRank > 0 && p.Rate <= top.Rate && i+1 < top.LastRank {
				point += 2
			}
		}

		p.Bonus = point
		p.Rate = max(MinRate, p.Rate+point)

		results = append(results, RankResult{
			PlayerID: id,
			Position: i + 1,
			Delta:    point,
			Rate:     p.Rate,
		})
	}

	for i, id := range order {
		if p, ok := players[id]; ok {
			p.LastRank = i + 1
		}
	}

	AssignTitles(players)
	return results
}

// AssignTitles gives champion/runner-up/third to the three highest-rated
// players and clears everyone else. Ties resolve by player id so the
// outcome is stable across runs.
func AssignTitles(players map[string]*PlayerRecord) {
	for _, p := range players {
		p.Title = TitleNone
	}

	ids := slices.Sorted(maps.Keys(players))
	slices.SortStableFunc(ids, func(a, b string) int {
		return players[b].Rate - players[a].Rate
	})

	for i, t := range []Title{TitleChampion, TitleRunnerUp, TitleThird} {
		if i >= len(ids) {
			break
		}
		players[ids[i]].Title = t
	}
}

// TopRated returns the id of the highest-rated player, or "" when no
// players exist. Ties resolve to the first id in sorted order.
func TopRated(players map[string]*PlayerRecord) string {
	var topID string
	for _, id := range slices.Sorted(maps.Keys(players)) {
		if topID == "" || players[id].Rate > players[topID].Rate {
			topID = id
		}
	}
	return topID
}
