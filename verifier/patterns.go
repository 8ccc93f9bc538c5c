package verifier

import "strings"

// Candidate pairs a generated address with the label of the naming
// convention that produced it.
type Candidate struct {
	Email   string `json:"email"`
	Pattern string `json:"pattern"`
}

// patternSeparators in emission order. The empty separator glues the
// tokens together ("johndoe").
var patternSeparators = []string{".", "", "_", "-"}

// GeneratePatterns expands a (first, last, domain) triple into the 26
// candidate local-part conventions, most common first. The order is
// fixed and deterministic: discovery priority depends on it. Inputs are
// lowercased and trimmed; both names are expected to be non-empty.
func GeneratePatterns(firstName, lastName, domain string) []Candidate {
	first := normalizeNameToken(firstName)
	last := normalizeNameToken(lastName)
	domain = strings.ToLower(strings.TrimSpace(domain))

	fi := initialOf(first)
	li := initialOf(last)

	// Token pairs in priority order; each expands with every separator.
	pairs := [][2]string{
		{first, last}, // john.doe
		{last, first}, // doe.john
		{fi, last},    // j.doe
		{first, li},   // john.d
		{fi, li},      // j.d
		{last, fi},    // doe.j
	}
	labels := [][2]string{
		{"first", "last"},
		{"last", "first"},
		{"f", "last"},
		{"first", "l"},
		{"f", "l"},
		{"last", "f"},
	}

	candidates := make([]Candidate, 0, 26)
	for i, pair := range pairs {
		for _, sep := range patternSeparators {
			candidates = append(candidates, Candidate{
				Email:   pair[0] + sep + pair[1] + "@" + domain,
				Pattern: labels[i][0] + sep + labels[i][1],
			})
		}
	}

	candidates = append(candidates,
		Candidate{Email: first + "@" + domain, Pattern: "first"},
		Candidate{Email: last + "@" + domain, Pattern: "last"},
	)

	return candidates
}

// normalizeNameToken lowercases, trims and strips interior whitespace
// so "De La Cruz" becomes a single usable token.
func normalizeNameToken(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "")
}

func initialOf(name string) string {
	if name == "" {
		return ""
	}
	return string([]rune(name)[0])
}
