package sqlite

import (
	"container/heap"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/promodex/internal/db"
)

// SearchKNN performs brute-force cosine search over all stored vectors and
// returns the k nearest chunks by ascending cosine distance. Rows whose
// vector dimensionality differs from the query are skipped.
func (s *Store) SearchKNN(ctx context.Context, vector []float32, k int) ([]db.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	// Phase 1: scan only id + vector to find top-k candidates.
	rows, err := s.db.QueryContext(ctx, "SELECT id, vector FROM chunks")
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &idScoreHeap{}
	heap.Init(h)

	// Reusable buffer for decoding vectors to avoid per-row allocations.
	var buf []float32

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		buf = decodeVectorInto(buf, blob)
		if len(buf) != len(vector) {
			continue
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < k {
			heap.Push(h, idScore{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if h.Len() == 0 {
		return nil, nil
	}

	// Phase 2: fetch full rows only for the winners.
	topIDs := make([]string, h.Len())
	scores := make(map[string]float64, h.Len())
	for i := len(topIDs) - 1; i >= 0; i-- {
		item := heap.Pop(h).(idScore)
		topIDs[i] = item.ID
		scores[item.ID] = item.Score
	}

	hits, err := s.fetchHits(ctx, topIDs, scores)
	if err != nil {
		return nil, err
	}

	sortByDistance(hits)
	return hits, nil
}

func (s *Store) fetchHits(ctx context.Context, ids []string, scores map[string]float64) ([]db.Hit, error) {
	queryArgs := make([]any, len(ids))
	for i, id := range ids {
		queryArgs[i] = id
	}

	query := "SELECT id, " + strings.Join(db.ChunkFields, ", ") +
		" FROM chunks WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("fetching top-k rows: %w", err)
	}
	defer rows.Close()

	hits := make([]db.Hit, 0, len(ids))
	for rows.Next() {
		var id string
		values := make([]string, len(db.ChunkFields))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning full row: %w", err)
		}

		m := make(map[string]string, len(db.ChunkFields))
		for i, name := range db.ChunkFields {
			m[name] = values[i]
		}

		hits = append(hits, db.Hit{
			Chunk:    db.ParseChunkFields(m),
			Distance: 1 - scores[id],
		})
	}
	return hits, rows.Err()
}

// sortByDistance sorts hits ascending by distance. Used for small slices (k).
func sortByDistance(hits []db.Hit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Distance < hits[j-1].Distance; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

// idScore holds only the ID and score during the scan phase of SearchKNN.
// Full rows are fetched only for top-k winners.
type idScore struct {
	ID    string
	Score float64
}

// idScoreHeap is a min-heap of idScore ordered by Score.
type idScoreHeap []idScore

func (h idScoreHeap) Len() int           { return len(h) }
func (h idScoreHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h idScoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idScoreHeap) Push(x any)        { *h = append(*h, x.(idScore)) }
func (h *idScoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// decodeVectorInto decodes little-endian bytes into the provided buffer,
// reusing it to avoid per-row allocations. Misaligned input decodes empty.
func decodeVectorInto(buf []float32, b []byte) []float32 {
	if len(b)%4 != 0 {
		return buf[:0]
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity as dot(a,b) / (aNorm * bNorm).
// aNorm is the precomputed L2 norm of vector a.
func cosine(a, b []float32, aNorm float64) float64 {
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return dot / (aNorm * bNorm)
}
