package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/promodex/internal/domain"
)

func testPromos(t *testing.T, titles ...string) []domain.Promo {
	t.Helper()
	promos := make([]domain.Promo, len(titles))
	for i, title := range titles {
		p, err := domain.NewPromo(domain.PromoAttrs{
			Title: title,
			URL:   "https://bank.example/" + title,
		})
		if err != nil {
			t.Fatalf("NewPromo failed: %v", err)
		}
		promos[i] = p
	}
	return promos
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "promos.json")
	s := New(path)

	promos := testPromos(t, "a", "b", "c")
	if err := s.Save(promos); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 promos, got %d", len(got))
	}
	if got[0].ID() != promos[0].ID() {
		t.Errorf("order or identity changed: %q vs %q", got[0].ID(), promos[0].ID())
	}
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promos.json")
	s := New(path)

	if err := s.Save(testPromos(t, "a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be renamed away, stat err = %v", err)
	}
}

func TestSave_ReplacesPrevious(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "promos.json"))

	if err := s.Save(testPromos(t, "old")); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(testPromos(t, "new1", "new2")); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 || got[0].Title() != "new1" {
		t.Fatalf("expected the replaced snapshot, got %v", got)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	if err := New("").Save(testPromos(t, "a")); err == nil {
		t.Fatal("expected error for unconfigured path")
	}
}

func TestLoad_Missing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))

	_, err := s.Load()
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFallback_TruncatesToK(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "promos.json"))
	if err := s.Save(testPromos(t, "a", "b", "c", "d")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Fallback(2)
	if err != nil {
		t.Fatalf("Fallback failed: %v", err)
	}
	if len(got) != 2 || got[0].Title() != "a" || got[1].Title() != "b" {
		t.Fatalf("expected first 2 promos, got %v", got)
	}

	all, err := s.Fallback(0)
	if err != nil {
		t.Fatalf("Fallback(0) failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected all promos for k=0, got %d", len(all))
	}
}
