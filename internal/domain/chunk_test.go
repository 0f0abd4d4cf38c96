package domain

import (
	"testing"
)

func chunkParent(t *testing.T) Promo {
	t.Helper()
	p, err := NewPromo(PromoAttrs{
		ID:             "p1",
		Title:          "Diskon 50% Restoran",
		URL:            "https://bank.example/promo/resto",
		Period:         "1 - 31 Januari 2025",
		Category:       "Kuliner",
		Bank:           "Bank Contoh",
		PaymentMethods: []string{"Kartu Kredit", "QRIS"},
		Description:    "Nikmati diskon di restoran pilihan.",
		ScrapeDate:     "2025-01-02",
	})
	if err != nil {
		t.Fatalf("NewPromo: %v", err)
	}
	return p
}

func TestChunk_ID(t *testing.T) {
	c := NewChunk(chunkParent(t), 3, "teks")
	if c.ID() != "p1::chunk-3" {
		t.Errorf("expected p1::chunk-3, got %s", c.ID())
	}
}

func TestChunk_EmbedText_FullPreamble(t *testing.T) {
	c := NewChunk(chunkParent(t), 0, "Nikmati diskon di restoran pilihan.")
	want := "Title: Diskon 50% Restoran\n" +
		"Period: 1 - 31 Januari 2025\n" +
		"Category: Kuliner\n" +
		"Bank: Bank Contoh\n" +
		"Payment Methods: Kartu Kredit, QRIS\n" +
		"Scrape Date: 2025-01-02\n" +
		"Url: https://bank.example/promo/resto\n" +
		"Parent Id: p1\n" +
		"Chunk Index: 0\n\n" +
		"Nikmati diskon di restoran pilihan."
	if got := c.EmbedText(); got != want {
		t.Errorf("embed text mismatch:\nwant %q\ngot  %q", want, got)
	}
}

func TestChunk_EmbedText_SkipsEmptyFields(t *testing.T) {
	c := ReconstructChunk(ChunkAttrs{
		ParentID: "p2",
		Index:    1,
		Text:     "isi chunk",
		Title:    "Promo",
	})
	want := "Title: Promo\nParent Id: p2\nChunk Index: 1\n\nisi chunk"
	if got := c.EmbedText(); got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestChunk_EmbedText_HeaderOnly(t *testing.T) {
	c := ReconstructChunk(ChunkAttrs{ParentID: "p3", Index: 0, Text: "   "})
	want := "Parent Id: p3\nChunk Index: 0"
	if got := c.EmbedText(); got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestChunk_PaymentMethodsJoined(t *testing.T) {
	c := NewChunk(chunkParent(t), 0, "x")
	if got := c.PaymentMethodsJoined(); got != "Kartu Kredit, QRIS" {
		t.Errorf("want comma join, got %q", got)
	}
}

func TestChunk_ReconstructRoundTrip(t *testing.T) {
	orig := NewChunk(chunkParent(t), 2, "potongan teks")
	re := ReconstructChunk(ChunkAttrs{
		ParentID:       orig.ParentID(),
		Index:          orig.Index(),
		Text:           orig.Text(),
		Title:          orig.Title(),
		URL:            orig.URL(),
		Period:         orig.Period(),
		Category:       orig.Category(),
		Bank:           orig.Bank(),
		PaymentMethods: orig.PaymentMethods(),
		ScrapeDate:     orig.ScrapeDate(),
	})
	if re.ID() != orig.ID() || re.EmbedText() != orig.EmbedText() {
		t.Fatal("reconstructed chunk must be equivalent")
	}
}
