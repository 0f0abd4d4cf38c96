package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/promodex/internal/db"
)

// scoreField is the computed distance field FT.SEARCH derives from the
// vector field name.
const scoreField = "__vector_score"

// SearchKNN runs a KNN query over the chunk index and returns hits ordered
// by ascending cosine distance. Distances are reported raw; ranking math
// happens in the query engine.
func (s *Store) SearchKNN(ctx context.Context, vector []float32, k int) ([]db.Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	returnFields := append([]string{}, db.ChunkFields...)
	returnFields = append(returnFields, scoreField)

	args := []string{s.cfg.IndexName, fmt.Sprintf("*=>[KNN %d @vector $BLOB]", k)}
	args = append(args, "RETURN", strconv.Itoa(len(returnFields)))
	args = append(args, returnFields...)
	// SORTBY + LIMIT k override the server's default page size of 10.
	args = append(args, "SORTBY", scoreField)
	args = append(args, "LIMIT", "0", strconv.Itoa(k))
	args = append(args, "PARAMS", "2", "BLOB", string(db.VectorToBytes(vector)), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

func parseKNNResult(raw []rueidis.RedisMessage) ([]db.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]db.Hit, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		m := parseFieldPairs(fields)

		var distance float64
		if scoreStr, ok := m[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				distance = d
			}
			delete(m, scoreField)
		}

		hits = append(hits, db.Hit{
			Chunk:    db.ParseChunkFields(m),
			Distance: distance,
		})
	}

	return hits, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
