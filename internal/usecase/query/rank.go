package query

import (
	"sort"

	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
	"github.com/kailas-cloud/promodex/internal/domain/period"
)

// scored pairs a hit with its ranking math. similarity is kept separate from
// score so boosting never hides how close the vector match actually was.
type scored struct {
	hit        db.Hit
	similarity float64
	score      float64
}

// rank turns raw KNN hits into at most k promo results: score each chunk,
// keep the best chunk per parent promo, order by score. Returns the results
// plus the number of hits that received a month boost.
func rank(hits []db.Hit, detected []string, k int) ([]domain.Result, int) {
	collapsed, boosted := collapse(hits, detected)

	sort.SliceStable(collapsed, func(i, j int) bool {
		return collapsed[i].score > collapsed[j].score
	})
	if len(collapsed) > k {
		collapsed = collapsed[:k]
	}

	results := make([]domain.Result, len(collapsed))
	for i, sc := range collapsed {
		results[i] = domain.NewResult(i+1, sc.hit.Chunk, sc.similarity, sc.score)
	}
	return results, boosted
}

// collapse keeps the best-scoring chunk per parent. The slice preserves the
// order parents were first seen in, which the stable sort above uses as the
// tie-break, and a later equal-scoring chunk never displaces an earlier one.
func collapse(hits []db.Hit, detected []string) ([]scored, int) {
	var (
		order   []scored
		boosted int
	)
	byParent := make(map[string]int, len(hits))

	for _, h := range hits {
		similarity := 1 - h.Distance
		boost := period.Boost(boostText(h.Chunk), detected)
		if boost > 0 {
			boosted++
		}
		sc := scored{hit: h, similarity: similarity, score: similarity + boost}

		pid := h.Chunk.ParentID()
		if i, ok := byParent[pid]; ok {
			if sc.score > order[i].score {
				order[i] = sc
			}
			continue
		}
		byParent[pid] = len(order)
		order = append(order, sc)
	}
	return order, boosted
}

// boostText is what the month boost inspects: promo period, title and the
// chunk body. Boost lowercases it.
func boostText(c domain.Chunk) string {
	return c.Period() + " " + c.Title() + " " + c.Text()
}
