package scraper

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errSoft404 = errors.New("page reads as not found")

// shortBodyChars is the body length under which the whole body is checked
// for not-found phrasing. Longer pages only have their title and headings checked.
const shortBodyChars = 1500

var notFoundPhrases = []string{
	"page not found", "404", "not found", "does not exist", "doesn't exist",
	"no longer available", "find that page", "find this page", "find the page",
	"seite nicht gefunden", "page introuvable",
}

// headingNotFoundPhrases are checked against headings, where careers pages
// also write things like "Can't find the right role?".
var headingNotFoundPhrases = []string{
	"page not found", "404 not found", "error 404", "404 error", "page does not exist",
	"page doesn't exist", "page no longer exists", "find that page", "find this page",
	"find the page", "seite nicht gefunden", "page introuvable",
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func readsNotFound(text string) bool {
	return containsAny(text, notFoundPhrases)
}

func headingReadsNotFound(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "404", "not found":
		return true
	}
	return containsAny(text, headingNotFoundPhrases)
}

// isSoft404 reports whether a page served with a success status is really a
// not-found page.
func isSoft404(doc *goquery.Document) bool {
	if readsNotFound(doc.Find("title").First().Text()) {
		return true
	}

	found := false
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = headingReadsNotFound(visibleText(s))
		return !found
	})
	if found {
		return true
	}

	body := visibleText(doc.Find("body"))
	return len(body) < shortBodyChars && readsNotFound(body)
}
