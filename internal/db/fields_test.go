package db

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/promodex/internal/domain"
)

func testChunk(t *testing.T) domain.Chunk {
	t.Helper()
	p, err := domain.NewPromo(domain.PromoAttrs{
		Title:          "Diskon 50% Restoran",
		URL:            "https://bank.example/promo/diskon-50",
		Period:         "1 Januari 2025 - 31 Januari 2025",
		Category:       "Kuliner",
		Bank:           "BCA",
		PaymentMethods: []string{"Kartu Kredit", "QRIS"},
		ScrapeDate:     "2025-01-02",
		Description:    "Nikmati diskon 50% di restoran pilihan.",
	})
	if err != nil {
		t.Fatalf("NewPromo: %v", err)
	}
	return domain.NewChunk(p, 2, "Nikmati diskon 50% di restoran pilihan.")
}

func TestBuildParseChunkFields_RoundTrip(t *testing.T) {
	c := testChunk(t)
	sc := StoredChunk{Chunk: c, Embedding: []float32{0.1, -0.5, 2}}

	m := BuildChunkFields(sc)

	if got := m[FieldChunkIndex]; got != "2" {
		t.Errorf("chunk_index = %q, want %q", got, "2")
	}
	if got := m[FieldPaymentMethods]; got != "Kartu Kredit, QRIS" {
		t.Errorf("payment_methods = %q, want %q", got, "Kartu Kredit, QRIS")
	}

	back := ParseChunkFields(m)
	if back.ID() != c.ID() {
		t.Errorf("ID = %q, want %q", back.ID(), c.ID())
	}
	if back.Title() != c.Title() || back.Bank() != c.Bank() || back.Period() != c.Period() {
		t.Errorf("metadata mismatch: got %q/%q/%q", back.Title(), back.Bank(), back.Period())
	}
	if !reflect.DeepEqual(back.PaymentMethods(), c.PaymentMethods()) {
		t.Errorf("payment methods = %v, want %v", back.PaymentMethods(), c.PaymentMethods())
	}
}

func TestParseChunkFields_EmptyPaymentMethods(t *testing.T) {
	c := ParseChunkFields(map[string]string{
		FieldParentID: "p1",
		FieldText:     "isi",
	})
	if c.PaymentMethods() != nil {
		t.Errorf("payment methods = %v, want nil", c.PaymentMethods())
	}
	if c.Index() != 0 {
		t.Errorf("index = %d, want 0", c.Index())
	}
}

func TestVectorBytes_RoundTrip(t *testing.T) {
	v := []float32{0, 1, -1, 0.25, 3.5e-4}
	got := VectorFromBytes(VectorToBytes(v))
	if !reflect.DeepEqual(got, v) {
		t.Errorf("round trip = %v, want %v", got, v)
	}
}

func TestVectorFromBytes_Misaligned(t *testing.T) {
	if got := VectorFromBytes([]byte{1, 2, 3}); got != nil {
		t.Errorf("misaligned input = %v, want nil", got)
	}
	if got := VectorFromBytes(nil); got != nil {
		t.Errorf("nil input = %v, want nil", got)
	}
}
