// Package period detects month mentions in free text and scores how well a
// promotion period matches them. Synonym tables cover Indonesian and English
// month names plus common abbreviations and numeric forms.
package period

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Boost weights applied during re-ranking.
const (
	// BoostDirect is added when a synonym of the requested month appears in the text.
	BoostDirect = 0.12
	// BoostYear is added when a year and a numeric month form appear together.
	BoostYear = 0.05
	// BoostAdjacent is added when a direct match co-occurs with a neighboring month.
	BoostAdjacent = 0.08
)

// months lists month numbers in calendar order. Detection results follow this order.
var months = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}

// synonyms maps a month number to its recognized spellings. Lookups are done
// on lowercased text, so the table only holds lowercase entries.
var synonyms = map[string][]string{
	"01": {"januari", "jan", "jan.", "january", "janv", "01", "1"},
	"02": {"februari", "feb", "feb.", "february", "02", "2"},
	"03": {"maret", "mar", "mar.", "march", "03", "3"},
	"04": {"april", "apr", "apr.", "april.", "04", "4"},
	"05": {"mei", "may", "may.", "mei.", "05", "5"},
	"06": {"juni", "jun", "jun.", "june", "06", "6"},
	"07": {"juli", "jul", "jul.", "july", "07", "7"},
	"08": {"agustus", "agus", "aug", "aug.", "august", "08", "8"},
	"09": {"september", "sep", "sept", "sept.", "09", "9"},
	"10": {"oktober", "okt", "okt.", "oct", "oct.", "october", "10"},
	"11": {"november", "nov", "nov.", "11"},
	"12": {"desember", "des", "des.", "dec", "dec.", "december", "12"},
}

var (
	yearRe = regexp.MustCompile(`\b20\d{2}\b`)

	// synonymRe holds one word-bounded pattern per synonym, compiled once.
	synonymRe = compileSynonyms()
	// numericRe matches the padded or bare numeric form of each month.
	numericRe = compileNumeric()
)

func compileSynonyms() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, syns := range synonyms {
		for _, s := range syns {
			if _, ok := out[s]; ok {
				continue
			}
			out[s] = regexp.MustCompile(`\b` + regexp.QuoteMeta(s) + `\b`)
		}
	}
	return out
}

func compileNumeric() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(months))
	for _, mm := range months {
		n, _ := strconv.Atoi(mm)
		out[mm] = regexp.MustCompile(fmt.Sprintf(`\b%s\b|\b0?%d\b`, mm, n))
	}
	return out
}

// Detect returns the month numbers mentioned in the query, in calendar order.
// Matching is case-insensitive and word-bounded, so "jan" matches but
// "janitor" does not.
func Detect(query string) []string {
	q := strings.ToLower(query)
	var found []string
	for _, mm := range months {
		for _, s := range synonyms[mm] {
			if synonymRe[s].MatchString(q) {
				found = append(found, mm)
				break
			}
		}
	}
	return found
}

// Synonyms returns the recognized spellings of a month number, or nil for
// unknown input.
func Synonyms(month string) []string {
	syns, ok := synonyms[month]
	if !ok {
		return nil
	}
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// ExpandSynonyms returns the sorted union of synonyms for the given months.
// Used to augment query text before embedding so month intent survives
// vectorization.
func ExpandSynonyms(detected []string) []string {
	seen := make(map[string]struct{})
	for _, mm := range detected {
		for _, s := range synonyms[mm] {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Prev returns the month preceding mm, wrapping January back to December.
func Prev(mm string) string {
	n, err := strconv.Atoi(mm)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d", (n-2+12)%12+1)
}

// Next returns the month following mm, wrapping December forward to January.
func Next(mm string) string {
	n, err := strconv.Atoi(mm)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d", n%12+1)
}

// Boost computes the additive ranking boost for a candidate text given the
// months detected in the query. Per month: BoostDirect for a synonym hit,
// BoostYear when a year and numeric month co-occur, BoostAdjacent when a
// direct hit co-occurs with a neighboring month.
func Boost(text string, detected []string) float64 {
	if len(detected) == 0 {
		return 0
	}
	t := strings.ToLower(text)
	hasYear := yearRe.MatchString(t)

	var boost float64
	for _, mm := range detected {
		direct := matchAny(t, mm)
		if direct {
			boost += BoostDirect
		}
		if hasYear && numericRe[mm].MatchString(t) {
			boost += BoostYear
		}
		if direct && (matchAny(t, Prev(mm)) || matchAny(t, Next(mm))) {
			boost += BoostAdjacent
		}
	}
	return boost
}

// matchAny reports whether any synonym of the month appears in the lowercased text.
func matchAny(lower, mm string) bool {
	for _, s := range synonyms[mm] {
		if synonymRe[s].MatchString(lower) {
			return true
		}
	}
	return false
}
