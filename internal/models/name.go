package models

import "strings"

// PersonName is a person's name split into its two parts as delivered by the
// repository ("Lastname, Firstname").
type PersonName struct {
	// Lastname is the family-name part. For inputs that could not be split
	// it carries the whole raw name.
	Lastname string

	// Firstname may be empty (single-surname entries, unparseable input).
	Firstname string
}

// ParsePersonName splits a raw "Lastname, Firstname" field. Inputs without a
// comma, or with an empty part around it, are kept whole as the lastname so
// that a malformed record still yields a usable name. It never fails.
func ParsePersonName(raw string) PersonName {
	raw = strings.TrimSpace(raw)
	last, first, ok := strings.Cut(raw, ",")
	if ok {
		last = strings.TrimSpace(last)
		first = strings.TrimSpace(first)
		if last != "" && first != "" {
			return PersonName{Lastname: last, Firstname: first}
		}
	}
	return PersonName{Lastname: raw}
}

// IsZero reports whether the name is empty.
func (n PersonName) IsZero() bool {
	return n.Lastname == "" && n.Firstname == ""
}

// Display returns the name in natural "Firstname Lastname" order for use in
// message bodies.
func (n PersonName) Display() string {
	if n.Firstname == "" {
		return n.Lastname
	}
	return n.Firstname + " " + n.Lastname
}

// String returns the repository's "Lastname, Firstname" form.
func (n PersonName) String() string {
	if n.Firstname == "" {
		return n.Lastname
	}
	return n.Lastname + ", " + n.Firstname
}
