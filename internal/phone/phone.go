// Package phone normalizes raw Brazilian phone-number input into canonical
// candidate numbers.
//
// Brazilian mobile numbers gained a ninth digit (a leading 9 after the area
// code) that older contact books may or may not carry, so a single raw input
// can map to two plausible canonical numbers. Normalize emits every plausible
// form; the dispatcher decides which one actually exists on the channel.
package phone

import "strings"

// CountryCode is prefixed to numbers that do not already carry it.
const CountryCode = "55"

// VariantKind says how a candidate relates to the cleaned input.
type VariantKind string

const (
	// VariantAsDialed is the cleaned input itself.
	VariantAsDialed VariantKind = "as_dialed"
	// VariantNinthAdded has a 9 inserted after the area code.
	VariantNinthAdded VariantKind = "ninth_added"
	// VariantNinthStripped has the 9 after the area code removed.
	VariantNinthStripped VariantKind = "ninth_stripped"
)

// Candidate is one plausible canonical number form. Ephemeral, produced
// per-request, never persisted.
type Candidate struct {
	Number string
	Kind   VariantKind
}

// Normalize turns a raw input string into an ordered set of canonical
// candidates:
//
//  1. Strip all non-digit characters.
//  2. Strip a single leading 0.
//  3. Prefix CountryCode if not already present.
//  4. The result must be 12 or 13 digits (country + area + 8-9 digits).
//  5. 13 digits with a 9 after the area code: emit the 13-digit form and the
//     12-digit form without that 9. Any other 13-digit number: just itself.
//  6. 12 digits: emit the 12-digit form and the 13-digit form with a 9
//     inserted after the area code.
//
// Candidates are not ranked; selection happens at dispatch time against the
// channel's existence check.
func Normalize(raw string) ([]Candidate, error) {
	clean := digitsOnly(raw)
	if clean == "" {
		return nil, ErrNoDigits
	}

	clean = strings.TrimPrefix(clean, "0")
	if !strings.HasPrefix(clean, CountryCode) {
		clean = CountryCode + clean
	}

	switch {
	case len(clean) < 12:
		return nil, ErrTooShort
	case len(clean) > 13:
		return nil, ErrTooLong
	}

	area := clean[2:4]
	rest := clean[4:]

	if len(clean) == 13 {
		if !strings.HasPrefix(rest, "9") {
			return []Candidate{{Number: clean, Kind: VariantAsDialed}}, nil
		}
		return []Candidate{
			{Number: clean, Kind: VariantAsDialed},
			{Number: CountryCode + area + rest[1:], Kind: VariantNinthStripped},
		}, nil
	}

	return []Candidate{
		{Number: clean, Kind: VariantAsDialed},
		{Number: CountryCode + area + "9" + rest, Kind: VariantNinthAdded},
	}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
