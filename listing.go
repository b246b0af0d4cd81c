package illustdl

import "context"

// ListingEntry is one artwork as it appears on a listing page.
type ListingEntry struct {
	ID        int64  `json:"id"`
	DetailURL string `json:"detailUrl"`
}

// ListingPage represents a parsed listing page.
type ListingPage struct {
	URL string `json:"url"`

	// NextURL is the absolute URL of the following listing page.
	// Empty when this is the last page of the listing.
	NextURL string `json:"nextUrl"`

	// Entries are the artworks on the page, in page order.
	Entries []ListingEntry `json:"entries"`
}

// Last reports whether the listing has no further pages.
func (p *ListingPage) Last() bool {
	return p.NextURL == ""
}

// ListingParser extracts navigation and entries from a listing page.
type ListingParser interface {
	// ParseListing parses html fetched from pageURL. Relative links are
	// resolved against pageURL.
	// Returns ELAYOUT if the page does not have the expected structure.
	ParseListing(html string, pageURL string) (*ListingPage, error)
}

// ListingResult holds the outcome of resolving one listing page.
type ListingResult struct {
	URL        string
	NextURL    string
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Last reports whether the resolved page was the end of the listing.
func (r *ListingResult) Last() bool {
	return r.NextURL == ""
}

// ListResolver processes one listing page and reports where to continue.
type ListResolver interface {
	ResolveListPage(ctx context.Context, url string) (*ListingResult, error)
}

// CursorStore persists the listing page a crawl resumes from.
type CursorStore interface {
	// LoadCursor returns the persisted listing URL.
	LoadCursor() (string, error)

	// SaveCursor persists url as the resume position.
	SaveCursor(url string) error
}
