// Package goquery parses ranking listing pages and artwork detail pages.
// The selectors are fixed: they describe one site layout and are not
// configurable.
package goquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/illustdl"
)

// Listing page selectors.
const (
	// PaginationSelector matches the list holding the pager of a ranking page.
	PaginationSelector = "#wrapper div.layout-body div div.ui-fixed-container div nav:nth-child(2) ul"

	// NextPageSelector matches the "next page" link inside the pager.
	NextPageSelector = "li.after a"

	// RankingSelector matches the container of ranked entries.
	RankingSelector = "#wrapper div.layout-body div div.ranking-items-container div.ranking-items.adjust"

	// EntrySelector matches one ranked entry inside the container.
	EntrySelector = "section.ranking-item"

	// EntryLinkSelector matches the detail page link of an entry.
	EntryLinkSelector = "div.ranking-image-item a"
)

// Ensure Parser implements the parser interfaces at compile time.
var (
	_ illustdl.ListingParser = (*Parser)(nil)
	_ illustdl.ArtworkParser = (*Parser)(nil)
)

// Parser extracts listing and artwork data from HTML.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseListing extracts the next page link and the ranked entries of a
// listing page.
//
// A page whose pager has no "next" link is the last page of the listing and
// yields an empty NextURL. A page without a pager or without the ranking
// container does not match the layout (typically an expired session serving
// a login page) and yields ELAYOUT.
func (p *Parser) ParseListing(html string, pageURL string) (*illustdl.ListingPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "invalid listing URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "failed to parse HTML: %v", err)
	}

	pager := doc.Find(PaginationSelector).First()
	if pager.Length() == 0 {
		return nil, illustdl.Errorf(illustdl.ELAYOUT, "listing %s has no pager; the session cookie may have expired", pageURL)
	}
	ranking := doc.Find(RankingSelector).First()
	if ranking.Length() == 0 {
		return nil, illustdl.Errorf(illustdl.ELAYOUT, "listing %s has no ranking container", pageURL)
	}

	page := &illustdl.ListingPage{URL: pageURL}

	if href, ok := pager.Find(NextPageSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		page.NextURL = resolveURL(base, href)
		if page.NextURL == "" {
			return nil, illustdl.Errorf(illustdl.ELAYOUT, "listing %s has an invalid next page link %q", pageURL, href)
		}
	}

	var parseErr error
	ranking.Find(EntrySelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		entry, err := parseEntry(base, sel)
		if err != nil {
			parseErr = illustdl.Errorf(illustdl.ELAYOUT, "listing %s entry %d: %s", pageURL, i, illustdl.ErrorMessage(err))
			return false
		}
		page.Entries = append(page.Entries, entry)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return page, nil
}

// parseEntry reads the artwork ID and detail link of one ranked entry.
func parseEntry(base *url.URL, sel *goquery.Selection) (illustdl.ListingEntry, error) {
	rawID, ok := sel.Attr("data-id")
	if !ok {
		return illustdl.ListingEntry{}, illustdl.Errorf(illustdl.ELAYOUT, "missing data-id")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return illustdl.ListingEntry{}, illustdl.Errorf(illustdl.ELAYOUT, "invalid data-id %q", rawID)
	}

	href, ok := sel.Find(EntryLinkSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return illustdl.ListingEntry{}, illustdl.Errorf(illustdl.ELAYOUT, "artwork %d has no detail link", id)
	}
	detailURL := resolveURL(base, href)
	if detailURL == "" {
		return illustdl.ListingEntry{}, illustdl.Errorf(illustdl.ELAYOUT, "artwork %d has an invalid detail link %q", id, href)
	}

	return illustdl.ListingEntry{ID: id, DetailURL: detailURL}, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}
