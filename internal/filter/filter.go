package filter

import (
	"strings"
	"unicode"
)

// KeywordMatcher matches text containing any of its keywords.
// Matching is case-insensitive substring. An empty keyword list matches nothing.
type KeywordMatcher struct {
	keywords []string
	// words restricts matches to whole words or phrases.
	words bool
}

// NewKeywordMatcher returns a matcher over the given keywords.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &KeywordMatcher{keywords: lowered}
}

// NewWordMatcher returns a matcher whose keywords only match as whole words,
// so "intern" matches "Marketing Intern" but not "International".
func NewWordMatcher(keywords []string) *KeywordMatcher {
	padded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			padded = append(padded, wordForm(kw))
		}
	}
	return &KeywordMatcher{keywords: padded, words: true}
}

// wordForm lowercases text, turns every run of non-alphanumerics into one
// space and pads the result with a space on each side.
func wordForm(text string) string {
	var b strings.Builder
	b.WriteByte(' ')
	gap := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			gap = false
			continue
		}
		if !gap {
			b.WriteByte(' ')
			gap = true
		}
	}
	if !gap {
		b.WriteByte(' ')
	}
	return b.String()
}

// Match returns true if text contains any keyword.
func (m *KeywordMatcher) Match(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	if m.words {
		lower = wordForm(text)
	}
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchFraction returns the share of texts that match, 0 for an empty input.
func (m *KeywordMatcher) MatchFraction(texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	matched := 0
	for _, t := range texts {
		if m.Match(t) {
			matched++
		}
	}
	return float64(matched) / float64(len(texts))
}

// JobTitles matches text naming a role. Department and product words such
// as "Sales", "Support" or "Developers" are left out since site menus are
// full of them.
var JobTitles = NewWordMatcher([]string{
	"engineer", "developer", "programmer", "architect", "designer", "manager",
	"director", "analyst", "scientist", "specialist", "coordinator", "associate",
	"intern", "internship", "lead", "head of", "consultant", "administrator",
	"representative", "assistant", "officer", "recruiter", "accountant",
	"technician", "writer", "editor", "executive", "president", "vp", "strategist",
	"researcher", "counsel", "attorney", "advisor", "agent", "nurse", "devops",
	"sre", "qa", "tester", "controller", "instructor", "trainee", "apprentice",
	"supervisor", "operator", "mechanic", "electrician", "therapist", "pharmacist",
	"receptionist", "clerk", "cashier", "driver", "product owner",
	"business partner", "werkstudent", "praktikant", "entwickler",
})

// Locations matches text that names a place or work arrangement.
var Locations = NewKeywordMatcher([]string{
	"remote", "hybrid", "onsite", "on-site", "office", "usa", "united states",
	"united kingdom", "germany", "canada", "europe", "emea", "apac", "new york",
	"san francisco", "london", "berlin", "paris", "amsterdam", "toronto",
	"austin", "seattle", "boston", "chicago", "los angeles", "denver", "munich",
	"dublin", "madrid", "barcelona", "lisbon", "stockholm", "tel aviv", "singapore",
	"sydney", "bangalore", "anywhere", ", ca", ", ny", ", tx", ", wa", ", ma",
})

// EmploymentTypes matches employment-arrangement phrasing.
var EmploymentTypes = NewKeywordMatcher([]string{
	"full-time", "full time", "fulltime", "part-time", "part time", "parttime",
	"contract", "freelance", "temporary", "internship", "permanent", "vollzeit",
	"teilzeit",
})

// JobCSSTerms matches class or id values commonly used on job listing markup.
var JobCSSTerms = NewKeywordMatcher([]string{
	"job", "position", "opening", "vacanc", "career", "posting", "role",
	"opportunit", "requisition", "listing",
})

// JobPathSegments matches link targets that look like a job detail page.
var JobPathSegments = NewKeywordMatcher([]string{
	"/job/", "/jobs/", "/careers/", "/career/", "/position", "/opening",
	"/vacanc", "/posting", "/apply", "/role", "gh_jid=", "/o/", "/stellen",
})
