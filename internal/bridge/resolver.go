package bridge

import "strings"

// ResolvePrinterName matches a client-supplied printer name against the
// enumerated list and returns the canonical name, or "" when nothing
// matches. Four tiers are tried in order and each tier scans the list in
// its original order, so an exact match anywhere beats a substring match
// earlier in the list:
//
//  1. exact, case-insensitive
//  2. enumerated name contains the query
//  3. query contains the enumerated name
//  4. both sides stripped of whitespace, '-', '_', '.' and tested for
//     containment in either direction
//
// Empty query or empty list resolve to "" without error.
func ResolvePrinterName(query string, printers []Printer) string {
	if query == "" || len(printers) == 0 {
		return ""
	}

	lowered := strings.ToLower(query)

	for _, p := range printers {
		if strings.ToLower(p.Name) == lowered {
			return p.Name
		}
	}

	for _, p := range printers {
		if strings.Contains(strings.ToLower(p.Name), lowered) {
			return p.Name
		}
	}

	for _, p := range printers {
		if p.Name != "" && strings.Contains(lowered, strings.ToLower(p.Name)) {
			return p.Name
		}
	}

	normalizedQuery := normalizeName(query)
	for _, p := range printers {
		name := normalizeName(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, normalizedQuery) || strings.Contains(normalizedQuery, name) {
			return p.Name
		}
	}

	return ""
}

func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '-', '_', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsLabelPrinter guesses from the printer name whether the device expects
// a label command stream rather than a driver-rendered page.
func IsLabelPrinter(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"label", "hprt", "tsc", "zebra", "dymo"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
