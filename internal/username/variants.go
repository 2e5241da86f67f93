package username

import (
	"strings"

	"github.com/etp-webadmin/etapprover/internal/models"
)

// Candidate ranks, lower is tried first.
const (
	RankInitialLastname  = 1 // "jhornung" — most staff accounts
	RankLastnameOnly     = 2 // "hornung" — professor-style accounts
	RankFullnameLastname = 3 // "johanneshornung" — rare, guards ambiguous entries
)

// Candidate is one username guess together with the pattern rank that
// produced it.
type Candidate struct {
	Value string
	Rank  int
}

// Variants generates the ordered, deduplicated candidate usernames for a
// name. For hyphenated lastnames the initial+lastname and lastname-only
// patterns are emitted for the hyphenated form first and the concatenated
// form second; the full-firstname pattern is only tried against the
// hyphenated form. The result is empty only when the whole name normalizes
// to nothing.
func Variants(name models.PersonName) []Candidate {
	last := Normalize(name.Lastname)
	first := Normalize(name.Firstname)
	if last == "" {
		// Single opaque token that landed in the firstname slot.
		last, first = first, ""
	}
	if last == "" {
		return nil
	}

	forms := []string{last}
	if strings.Contains(last, "-") {
		forms = append(forms, strings.ReplaceAll(last, "-", ""))
	}

	var out []Candidate
	seen := make(map[string]struct{})
	add := func(value string, rank int) {
		if value == "" {
			return
		}
		if _, dup := seen[value]; dup {
			return
		}
		seen[value] = struct{}{}
		out = append(out, Candidate{Value: value, Rank: rank})
	}

	for _, form := range forms {
		if first != "" {
			add(first[:1]+form, RankInitialLastname)
		}
		add(form, RankLastnameOnly)
	}
	if first != "" {
		add(first+forms[0], RankFullnameLastname)
	}
	return out
}

// Values returns just the username strings of candidates, preserving order.
func Values(candidates []Candidate) []string {
	values := make([]string, len(candidates))
	for i, c := range candidates {
		values[i] = c.Value
	}
	return values
}
