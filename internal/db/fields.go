package db

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/promodex/internal/domain"
)

// Field names shared by the redis hash layout and the sqlite column layout.
const (
	FieldParentID       = "parent_id"
	FieldChunkIndex     = "chunk_index"
	FieldText           = "text"
	FieldTitle          = "title"
	FieldURL            = "url"
	FieldPeriod         = "period"
	FieldCategory       = "category"
	FieldBank           = "bank"
	FieldPaymentMethods = "payment_methods"
	FieldScrapeDate     = "scrape_date"
	FieldVector         = "vector"
)

// ChunkFields lists the metadata fields of a stored chunk in storage order,
// vector excluded. Drivers use it for search RETURN clauses and column lists.
var ChunkFields = []string{
	FieldParentID,
	FieldChunkIndex,
	FieldText,
	FieldTitle,
	FieldURL,
	FieldPeriod,
	FieldCategory,
	FieldBank,
	FieldPaymentMethods,
	FieldScrapeDate,
}

// paymentMethodsSep joins the payment methods list into one stored string.
const paymentMethodsSep = ", "

// BuildChunkFields converts a StoredChunk into a flat map[string]string
// for hash-style persistence. The vector is serialized as binary.
func BuildChunkFields(sc StoredChunk) map[string]string {
	c := sc.Chunk
	return map[string]string{
		FieldParentID:       c.ParentID(),
		FieldChunkIndex:     strconv.Itoa(c.Index()),
		FieldText:           c.Text(),
		FieldTitle:          c.Title(),
		FieldURL:            c.URL(),
		FieldPeriod:         c.Period(),
		FieldCategory:       c.Category(),
		FieldBank:           c.Bank(),
		FieldPaymentMethods: c.PaymentMethodsJoined(),
		FieldScrapeDate:     c.ScrapeDate(),
		FieldVector:         string(VectorToBytes(sc.Embedding)),
	}
}

// ParseChunkFields converts a flat field map back into a domain Chunk.
// Unknown fields are ignored; a missing chunk_index parses as 0.
func ParseChunkFields(m map[string]string) domain.Chunk {
	index, _ := strconv.Atoi(m[FieldChunkIndex])

	var methods []string
	if v := m[FieldPaymentMethods]; v != "" {
		methods = strings.Split(v, paymentMethodsSep)
	}

	return domain.ReconstructChunk(domain.ChunkAttrs{
		ParentID:       m[FieldParentID],
		Index:          index,
		Text:           m[FieldText],
		Title:          m[FieldTitle],
		URL:            m[FieldURL],
		Period:         m[FieldPeriod],
		Category:       m[FieldCategory],
		Bank:           m[FieldBank],
		PaymentMethods: methods,
		ScrapeDate:     m[FieldScrapeDate],
	})
}

// VectorToBytes serializes []float32 to binary (4 bytes per float, little-endian).
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// VectorFromBytes deserializes little-endian binary back to []float32.
// Misaligned input returns nil.
func VectorFromBytes(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
