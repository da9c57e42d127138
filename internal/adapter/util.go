package adapter

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// internRegex matches "intern", "interns" and "internship" but not
// "international" or "internal".
var internRegex = regexp.MustCompile(`\bintern(s|ship|ships)?\b`)

// ClassifyEmployment maps a provider's employment-type string onto the
// canonical enum. Unrecognized input is full_time.
func ClassifyEmployment(raw string) model.EmploymentType {
	s := strings.ToLower(raw)
	switch {
	case internRegex.MatchString(s):
		return model.Internship
	case strings.Contains(s, "contract"), strings.Contains(s, "freelance"), strings.Contains(s, "temporary"):
		return model.Contract
	case strings.Contains(s, "part"):
		return model.PartTime
	default:
		return model.FullTime
	}
}

// ClassifyWorkType derives the work arrangement. An explicit remote flag wins
// over the workplace string, which wins over location text.
func ClassifyWorkType(remote *bool, workplace, location string) model.WorkType {
	if remote != nil && *remote {
		return model.WorkRemote
	}
	if wt := workTypeFromText(workplace); wt != model.WorkUnknown {
		return wt
	}
	loc := strings.ToLower(location)
	switch {
	case strings.Contains(loc, "hybrid"):
		return model.WorkHybrid
	case strings.Contains(loc, "remote"):
		return model.WorkRemote
	}
	return model.WorkUnknown
}

func workTypeFromText(s string) model.WorkType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return model.WorkUnknown
	}
	switch {
	case strings.Contains(s, "hybrid"):
		return model.WorkHybrid
	case strings.Contains(s, "remote"), s == "fully":
		return model.WorkRemote
	case strings.Contains(s, "site"), strings.Contains(s, "office"), strings.Contains(s, "onsite"), s == "none":
		return model.WorkOnsite
	}
	return model.WorkUnknown
}

// NormalizeDomain strips scheme, path, port and a leading "www." and lowercases.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// companyName returns the first label of the domain ("acme" for "acme.co.uk").
func companyName(domain string) string {
	d := NormalizeDomain(domain)
	if i := strings.Index(d, "."); i >= 0 {
		return d[:i]
	}
	return d
}

func alphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SlugGuesses derives candidate account slugs from a company domain. The order
// is fixed:
//  1. first label, alphanumerics only        (acme)
//  2. whole domain, alphanumerics only       (acmecom)
//  3. whole domain, dots as hyphens          (acme-com)
//  4. first label as written, when hyphenated (acme-inc for acme-inc.com)
//  5. {name}hq, {name}-inc, {name}inc
//
// Duplicates and empty values are dropped.
func SlugGuesses(domain string) []string {
	d := NormalizeDomain(domain)
	label := companyName(d)
	name := alphanumeric(label)

	candidates := []string{
		name,
		alphanumeric(d),
		strings.ReplaceAll(d, ".", "-"),
		label,
		name + "hq",
		name + "-inc",
		name + "inc",
	}

	seen := make(map[string]bool, len(candidates))
	guesses := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || c == "hq" || c == "-inc" || c == "inc" || seen[c] {
			continue
		}
		seen[c] = true
		guesses = append(guesses, c)
	}
	return guesses
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

// salaryFrom builds a Salary when at least one bound is positive.
func salaryFrom(min, max float64, currency string) *model.Salary {
	if min <= 0 && max <= 0 {
		return nil
	}
	s := &model.Salary{Currency: strings.ToUpper(currency)}
	if min > 0 {
		s.Min = floatPtr(min)
	}
	if max > 0 {
		s.Max = floatPtr(max)
	}
	return s
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string. Unparseable strings
// decode to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(str), ",", ""), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// ClassifyTitleEmployment classifies from free text such as a job title, where
// "part" alone is too ambiguous ("Partner Manager") to mean part time.
func ClassifyTitleEmployment(title string) model.EmploymentType {
	s := strings.ToLower(title)
	switch {
	case internRegex.MatchString(s):
		return model.Internship
	case strings.Contains(s, "contract"), strings.Contains(s, "freelance"), strings.Contains(s, "temporary"):
		return model.Contract
	case strings.Contains(s, "part-time"), strings.Contains(s, "part time"), strings.Contains(s, "parttime"):
		return model.PartTime
	default:
		return model.FullTime
	}
}
