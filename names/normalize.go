/*
Package names resolves employee identity across the billing and payroll exports.

PURPOSE:
  Billing writes "Sofia Martinez", payroll writes "Martinez, Sofia", and a third
  spelling turns up whenever someone retypes a name. This package turns every
  spelling into a canonical key, applies the static payroll-to-billing table,
  and falls back to a fuzzy strategy chain when the table has no entry.

KEY CONCEPTS:
  - Canonicalize: lower-case, accent-free, punctuation-free, idempotent key
  - Mapper: exact payroll->billing table, consulted before anything fuzzy
  - Matcher: ordered strategy chain producing a confidence per candidate
  - ValidateEmployeeMatching: cross-source matching report for data quality

INVARIANTS:
  - Canonicalize(Canonicalize(x)) == Canonicalize(x)
  - A name present in the mapping table never reaches the fuzzy path
  - Ambiguous fuzzy results are never auto-resolved

SEE ALSO:
  - matcher.go: Strategy chain and FindMatches
  - validate.go: Matching report
*/
package names

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	commaRe      = regexp.MustCompile(`\s*,\s*`)
)

// Canonicalize normalizes a display name into its grouping key.
//
// Accents are removed, the result is lower-cased, every rune other than a
// letter, digit, space or comma is dropped, whitespace is collapsed and
// commas are followed by exactly one space.
func Canonicalize(name string) string {
	s := stripDiacritics(strings.ToLower(name))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ',':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	s = whitespaceRe.ReplaceAllString(b.String(), " ")
	s = commaRe.ReplaceAllString(s, ", ")
	return strings.TrimSpace(s)
}

// stripDiacritics decomposes s (NFD) and drops the combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// EXACT MAPPING
// =============================================================================

// Mapper applies the static payroll-name -> billing-name table.
type Mapper struct {
	raw       map[string]string
	canonical map[string]string
}

// NewMapper indexes a mapping table by raw and canonical spelling. When two
// raw keys canonicalize to the same key, the lexically first one wins.
func NewMapper(table map[string]string) *Mapper {
	m := &Mapper{
		raw:       make(map[string]string, len(table)),
		canonical: make(map[string]string, len(table)),
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := table[k]
		m.raw[strings.TrimSpace(k)] = v
		ck := Canonicalize(k)
		if _, taken := m.canonical[ck]; !taken {
			m.canonical[ck] = v
		}
	}
	return m
}

// Lookup returns the mapped billing spelling. The raw spelling is tried
// first, then the canonical form.
func (m *Mapper) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	if v, ok := m.raw[strings.TrimSpace(name)]; ok {
		return v, true
	}
	v, ok := m.canonical[Canonicalize(name)]
	return v, ok
}

// Apply returns the mapped spelling, or name unchanged.
func (m *Mapper) Apply(name string) string {
	if v, ok := m.Lookup(name); ok {
		return v
	}
	return name
}

// Canonical maps then canonicalizes.
func (m *Mapper) Canonical(name string) string {
	return Canonicalize(m.Apply(name))
}

// Len returns the number of table entries.
func (m *Mapper) Len() int {
	if m == nil {
		return 0
	}
	return len(m.raw)
}

// =============================================================================
// NAME PARSING
// =============================================================================

// ParsedName splits a canonical name into parts.
type ParsedName struct {
	First  string
	Middle string
	Last   string
}

// ParseName parses "Last, First [Middle]" when a comma is present and
// "First [Middle] Last" otherwise. A single token is treated as a last name.
func ParseName(name string) ParsedName {
	c := Canonicalize(name)

	if i := strings.Index(c, ","); i >= 0 {
		p := ParsedName{Last: strings.TrimSpace(c[:i])}
		rest := strings.Fields(strings.ReplaceAll(c[i+1:], ",", " "))
		if len(rest) > 0 {
			p.First = rest[0]
			p.Middle = strings.Join(rest[1:], " ")
		}
		return p
	}

	fields := strings.Fields(c)
	switch len(fields) {
	case 0:
		return ParsedName{}
	case 1:
		return ParsedName{Last: fields[0]}
	default:
		return ParsedName{
			First:  fields[0],
			Middle: strings.Join(fields[1:len(fields)-1], " "),
			Last:   fields[len(fields)-1],
		}
	}
}

// Ordered renders the name as "first middle last".
func (p ParsedName) Ordered() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.First, p.Middle, p.Last} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Initial returns the first rune of the first name.
func (p ParsedName) Initial() rune {
	for _, r := range p.First {
		return r
	}
	return 0
}
