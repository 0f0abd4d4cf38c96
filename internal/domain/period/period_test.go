package period

import (
	"reflect"
	"testing"
)

func almost(a, b float64) bool {
	const eps = 1e-9
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestDetect_IndonesianName(t *testing.T) {
	got := Detect("promo kartu kredit bulan Januari")
	if !reflect.DeepEqual(got, []string{"01"}) {
		t.Fatalf("want [01], got %v", got)
	}
}

func TestDetect_EnglishAbbreviation(t *testing.T) {
	got := Detect("cashback feb 2025")
	if !reflect.DeepEqual(got, []string{"02"}) {
		t.Fatalf("want [02], got %v", got)
	}
}

func TestDetect_NumericForm(t *testing.T) {
	got := Detect("promo bulan 03")
	if !reflect.DeepEqual(got, []string{"03"}) {
		t.Fatalf("want [03], got %v", got)
	}
}

func TestDetect_MultipleMonthsCalendarOrder(t *testing.T) {
	got := Detect("promo desember dan januari")
	if !reflect.DeepEqual(got, []string{"01", "12"}) {
		t.Fatalf("want [01 12], got %v", got)
	}
}

func TestDetect_WordBoundary(t *testing.T) {
	if got := Detect("marketing department"); len(got) != 0 {
		t.Fatalf("expected no months in %q, got %v", "marketing department", got)
	}
	if got := Detect("janitor cleaning service"); len(got) != 0 {
		t.Fatalf("expected no months, got %v", got)
	}
}

func TestDetect_YearDigitsDoNotMatch(t *testing.T) {
	// "2025" must not be read as month 2, 02, 20 or 25.
	if got := Detect("promo tahun 2025"); len(got) != 0 {
		t.Fatalf("expected no months, got %v", got)
	}
}

func TestDetect_BareDigitTwelve(t *testing.T) {
	// "12" detects only December, not January's "1".
	got := Detect("promo bulan 12")
	if !reflect.DeepEqual(got, []string{"12"}) {
		t.Fatalf("want [12], got %v", got)
	}
}

func TestDetect_NoMonth(t *testing.T) {
	if got := Detect("diskon belanja online"); len(got) != 0 {
		t.Fatalf("want empty, got %v", got)
	}
}

func TestSynonyms_ReturnsCopy(t *testing.T) {
	a := Synonyms("05")
	if len(a) == 0 {
		t.Fatal("expected synonyms for 05")
	}
	a[0] = "mutated"
	b := Synonyms("05")
	if b[0] == "mutated" {
		t.Fatal("Synonyms must return a copy")
	}
}

func TestSynonyms_Unknown(t *testing.T) {
	if got := Synonyms("13"); got != nil {
		t.Fatalf("want nil for unknown month, got %v", got)
	}
}

func TestExpandSynonyms_SortedUnique(t *testing.T) {
	got := ExpandSynonyms([]string{"11", "11"})
	want := []string{"11", "nov", "nov.", "november"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestPrevNext_Wrap(t *testing.T) {
	cases := []struct {
		mm, prev, next string
	}{
		{"01", "12", "02"},
		{"06", "05", "07"},
		{"12", "11", "01"},
	}
	for _, c := range cases {
		if got := Prev(c.mm); got != c.prev {
			t.Errorf("Prev(%s): want %s, got %s", c.mm, c.prev, got)
		}
		if got := Next(c.mm); got != c.next {
			t.Errorf("Next(%s): want %s, got %s", c.mm, c.next, got)
		}
	}
}

func TestBoost_NoMonths(t *testing.T) {
	if got := Boost("periode januari 2025", nil); got != 0 {
		t.Fatalf("want 0, got %f", got)
	}
}

func TestBoost_DirectOnly(t *testing.T) {
	got := Boost("periode januari berlaku", []string{"01"})
	if !almost(got, BoostDirect) {
		t.Fatalf("want %f, got %f", BoostDirect, got)
	}
}

func TestBoost_DirectAndYearNumeric(t *testing.T) {
	// "01" is both a direct synonym and the numeric form next to a year.
	got := Boost("periode 01 2025", []string{"01"})
	if !almost(got, BoostDirect+BoostYear) {
		t.Fatalf("want %f, got %f", BoostDirect+BoostYear, got)
	}
}

func TestBoost_YearWithoutNumericMonth(t *testing.T) {
	// Year alone does not earn the year boost without a numeric month form.
	got := Boost("periode januari 2025", []string{"01"})
	if !almost(got, BoostDirect) {
		t.Fatalf("want %f, got %f", BoostDirect, got)
	}
}

func TestBoost_AdjacentMonth(t *testing.T) {
	got := Boost("promo januari sampai februari", []string{"01"})
	if !almost(got, BoostDirect+BoostAdjacent) {
		t.Fatalf("want %f, got %f", BoostDirect+BoostAdjacent, got)
	}
}

func TestBoost_AdjacentWithoutDirect(t *testing.T) {
	// Only the neighboring month appears, so neither boost applies.
	got := Boost("promo bulan februari", []string{"01"})
	if !almost(got, 0) {
		t.Fatalf("want 0, got %f", got)
	}
}

func TestBoost_DecemberJanuaryWrap(t *testing.T) {
	got := Boost("promo desember hingga januari", []string{"12"})
	if !almost(got, BoostDirect+BoostAdjacent) {
		t.Fatalf("want %f, got %f", BoostDirect+BoostAdjacent, got)
	}
}

func TestBoost_AdditiveAcrossMonths(t *testing.T) {
	// Both months hit directly and each sees the other as adjacent.
	got := Boost("januari dan februari", []string{"01", "02"})
	want := 2 * (BoostDirect + BoostAdjacent)
	if !almost(got, want) {
		t.Fatalf("want %f, got %f", want, got)
	}
}

func TestBoost_CaseInsensitive(t *testing.T) {
	got := Boost("Periode JANUARI", []string{"01"})
	if !almost(got, BoostDirect) {
		t.Fatalf("want %f, got %f", BoostDirect, got)
	}
}
