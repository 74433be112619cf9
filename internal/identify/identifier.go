package identify

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Identifier grammar, version 1.
//
// The recognized text of a back-of-box photo is scanned for:
//
//	code    = letter digit{4,5} | digit{5}      (the printed item number)
//	variant = [-_] alnum{3,}                    (optional colorway suffix)
//
// Matching is case-insensitive and the first match in the text wins. Earlier
// revisions of the shop tooling disagreed on whether the separator was
// required and on variant length; this grammar is the one canonical form.
var identifierPattern = regexp.MustCompile(`(?i)\b([A-Z][0-9]{4,5}|[0-9]{5})(?:[-_]([A-Z0-9]{3,}))?\b`)

// Identifier is the normalized (code, variant) key extracted from OCR text.
// Immutable once assigned to a batch.
type Identifier struct {
	Code    string
	Variant string
}

// Canonical returns the dedupe and lookup key: "CODE-VARIANT", or just
// "CODE" when there is no variant. Always upper case.
func (id Identifier) Canonical() string {
	if id.Variant == "" {
		return id.Code
	}
	return id.Code + "-" + id.Variant
}

// NormalizeText prepares OCR output for matching: full-width characters are
// narrowed to their ASCII forms (labels printed overseas often OCR as
// full-width digits and dashes) and surrounding whitespace is dropped.
func NormalizeText(text string) string {
	return strings.TrimSpace(width.Narrow.String(text))
}

// ParseIdentifier scans normalized text for the first identifier occurrence.
// Returns ok=false when the grammar does not match anywhere.
func ParseIdentifier(text string) (Identifier, bool) {
	m := identifierPattern.FindStringSubmatch(NormalizeText(text))
	if m == nil {
		return Identifier{}, false
	}
	return Identifier{
		Code:    strings.ToUpper(m[1]),
		Variant: strings.ToUpper(m[2]),
	}, true
}
