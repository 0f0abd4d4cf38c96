package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/promodex/internal/db"
)

// UpsertChunks writes one hash per chunk in a single DoMulti round-trip.
func (s *Store) UpsertChunks(ctx context.Context, chunks []db.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(chunks))
	for i, sc := range chunks {
		cmd := s.b().Hset().Key(s.chunkKey(sc.Chunk.ID())).FieldValue()
		for k, v := range db.BuildChunkFields(sc) {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("chunk %s: %w", chunks[i].Chunk.ID(), err)}
		}
	}
	return nil
}

// DeleteParent removes every chunk hash of one parent and reports the count.
func (s *Store) DeleteParent(ctx context.Context, parentID string) (int, error) {
	keys, err := s.scan(ctx, s.chunkKey(parentID)+"::*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Del().Key(key).Build()
	}

	deleted := 0
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		n, err := res.AsInt64()
		if err != nil {
			return deleted, &db.Error{Op: db.OpDel, Err: err}
		}
		deleted += int(n)
	}
	return deleted, nil
}

// ParentIDs lists the distinct parent ids present in the chunk keyspace,
// sorted for deterministic reconciliation.
func (s *Store) ParentIDs(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx, s.chunkKeyPrefix()+"*")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(keys))
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, s.chunkKeyPrefix())
		parent, _, ok := strings.Cut(id, "::")
		if !ok || parent == "" {
			continue
		}
		if _, dup := seen[parent]; dup {
			continue
		}
		seen[parent] = struct{}{}
		ids = append(ids, parent)
	}
	sort.Strings(ids)
	return ids, nil
}

// CountChunks returns the indexed chunk total via FT.SEARCH with LIMIT 0 0.
// A missing index means nothing has been indexed yet.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(s.cfg.IndexName, "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return 0, nil
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// scan iterates keys matching a pattern with cursor batching.
func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
