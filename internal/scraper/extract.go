package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/atsprobe/internal/model"
)

// htmlExtractor pulls candidate jobs out of a parsed page.
type htmlExtractor struct {
	name    string
	extract func(*goquery.Document, *url.URL) []model.RawJob
}

// htmlExtractors run in order of reliability.
var htmlExtractors = []htmlExtractor{
	{"json-ld", extractJSONLD},
	{"dom", extractDOM},
	{"links", extractLinks},
}

// extractHTML runs the soft-404 check and then each extractor until one
// yields a result set that validates.
func extractHTML(body []byte, pageURL string) ([]model.RawJob, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if isSoft404(doc) {
		return nil, errSoft404
	}

	base, _ := url.Parse(pageURL)

	var reasons []string
	for _, ex := range htmlExtractors {
		jobs, err := validate(ex.extract(doc, base))
		if err == nil {
			return jobs, nil
		}
		reasons = append(reasons, ex.name+" "+err.Error())
	}
	return nil, errors.New(strings.Join(reasons, ", "))
}
