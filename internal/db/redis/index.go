package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/promodex/internal/db"
)

// Field types used by the chunk index schema.
type fieldType int

const (
	fieldTag fieldType = iota
	fieldVector
)

// indexField describes one field in the FT.CREATE schema.
type indexField struct {
	Name string
	Type fieldType

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool

	// VECTOR options (HNSW, FLOAT32, COSINE)
	VectorDim         int
	VectorM           int
	VectorEFConstruct int
}

// indexDefinition is a complete FT index definition used by FT.CREATE.
type indexDefinition struct {
	Name   string
	Prefix string
	Fields []indexField
}

// chunkIndex builds the FT definition for the chunk keyspace: parent and
// metadata tags for ops queries plus the HNSW vector field.
func (s *Store) chunkIndex(dimensions int) indexDefinition {
	return indexDefinition{
		Name:   s.cfg.IndexName,
		Prefix: s.chunkKeyPrefix(),
		Fields: []indexField{
			{Name: db.FieldParentID, Type: fieldTag, TagSeparator: ",", TagCaseSensitive: true},
			{Name: db.FieldBank, Type: fieldTag},
			{Name: db.FieldCategory, Type: fieldTag},
			{
				Name:              db.FieldVector,
				Type:              fieldVector,
				VectorDim:         dimensions,
				VectorM:           s.cfg.HNSWM,
				VectorEFConstruct: s.cfg.HNSWEFConstruct,
			},
		},
	}
}

// EnsureSchema creates the chunk index if it does not exist yet. Safe to
// call on every startup and sync.
func (s *Store) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return errors.New("dimensions must be positive")
	}

	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args, err := buildCreateArgs(s.chunkIndex(dimensions))
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil // lost a concurrent create race
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropSchema removes the chunk index and its indexed hashes (FT.DROPINDEX DD).
// Dropping an absent index is a no-op.
func (s *Store) DropSchema(ctx context.Context) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.cfg.IndexName, "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// indexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) indexExists(ctx context.Context) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.cfg.IndexName).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(idx indexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name, "ON", "HASH", "PREFIX", "1", idx.Prefix, "SCHEMA"}

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *indexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}

	switch f.Type {
	case fieldTag:
		args = append(args, "TAG")
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}

	case fieldVector:
		vectorArgs, err := buildVectorFieldArgs(f)
		if err != nil {
			return nil, err
		}
		args = append(args, vectorArgs...)

	default:
		return nil, errors.New("unknown field type")
	}

	return args, nil
}

func buildVectorFieldArgs(f *indexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", "COSINE",
	}
	if f.VectorM > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
	}
	if f.VectorEFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	result = append(result, attrs...)

	return result, nil
}
