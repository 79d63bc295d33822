// Package match provides the text canonicalization and string similarity
// primitives used by duplicate detection. All functions are pure: they never
// fail and treat empty or garbage input as an empty string.
package match

import (
	"regexp"
	"strings"
)

// legalSuffixes are corporate entity markers stripped from the end of a
// company name before comparison ("Acme Ltd" and "Acme" must normalize to
// the same string). Only trailing occurrences are removed.
var legalSuffixes = []string{
	"ltd", "inc", "corp", "llc", "plc", "gmbh", "sa", "sas", "bv", "ab", "oy", "as",
}

// honorifics are titles and generational suffixes stripped from person names
// on word boundaries, with or without a trailing period.
var honorifics = []string{
	"mr", "mrs", "ms", "dr", "prof", "sir", "dame", "jr", "sr", "ii", "iii", "iv", "v",
}

var (
	companyCharsRe = regexp.MustCompile(`[^\w\s-]`)
	personPunctRe  = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonDigitRe     = regexp.MustCompile(`\D`)

	honorificRes   []*regexp.Regexp
	legalSuffixRes []*regexp.Regexp
)

func init() {
	for _, h := range honorifics {
		honorificRes = append(honorificRes, regexp.MustCompile(`\b`+h+`\.?\b`))
	}
	for _, s := range legalSuffixes {
		// Trailing only: optional period, optional whitespace before end.
		legalSuffixRes = append(legalSuffixRes, regexp.MustCompile(`\s+`+s+`\.?\s*$`))
	}
}

// CompanyName canonicalizes a company name for comparison: lowercase, strip
// trailing legal-entity suffixes and a leading "the ", drop everything but
// word characters, spaces and hyphens, collapse whitespace.
func CompanyName(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(strings.TrimSpace(s))
	for _, re := range legalSuffixRes {
		out = re.ReplaceAllString(out, "")
	}
	out = strings.TrimPrefix(out, "the ")
	out = companyCharsRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// PersonName canonicalizes a person name: lowercase, strip honorifics and
// generational suffixes, strip punctuation, collapse whitespace.
func PersonName(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(strings.TrimSpace(s))
	for _, re := range honorificRes {
		out = re.ReplaceAllString(out, "")
	}
	out = personPunctRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Email lowercases and trims an email address. The local part and domain are
// otherwise preserved as-is.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone strips every non-digit character from a phone number.
func Phone(s string) string {
	if s == "" {
		return ""
	}
	return nonDigitRe.ReplaceAllString(s, "")
}

// DomainFromEmail returns the lowercased domain part of an email address, or
// an empty string when the input has no "@".
func DomainFromEmail(s string) string {
	at := strings.Index(s, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s[at+1:]))
}

// LinkedInPath reduces a LinkedIn profile URL to its bare profile slug so
// that "https://www.linkedin.com/in/jane-doe/" and "linkedin.com/in/jane-doe"
// compare equal.
func LinkedInPath(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(strings.TrimSpace(s))
	out = strings.TrimPrefix(out, "https://")
	out = strings.TrimPrefix(out, "http://")
	out = strings.TrimPrefix(out, "www.")
	out = strings.TrimPrefix(out, "linkedin.com")
	out = strings.TrimPrefix(out, "/in/")
	out = strings.TrimPrefix(out, "in/")
	return strings.TrimSuffix(out, "/")
}
