package illustdl

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// PageToken marks the page index inside an image filename, e.g. 83471092_p0.png.
const PageToken = "_p"

// Artwork represents one ranked content piece with one or more image pages.
type Artwork struct {
	ID           int64  `json:"id"`
	PageCount    int    `json:"pageCount"`
	FirstPageURL string `json:"firstPageUrl"`
}

// Validate returns an error if the artwork contains invalid fields.
func (a *Artwork) Validate() error {
	if a.ID <= 0 {
		return Errorf(EINVALID, "artwork ID must be positive")
	}
	if a.PageCount <= 0 {
		return Errorf(EINVALID, "artwork %d: page count must be positive", a.ID)
	}
	if a.FirstPageURL == "" {
		return Errorf(EINVALID, "artwork %d: first page URL required", a.ID)
	}
	if a.PageCount > 1 && !strings.Contains(ImageFilename(a.FirstPageURL), PageToken+"0") {
		return Errorf(EINVALID, "artwork %d: %d pages but first page URL %s has no %s0 token", a.ID, a.PageCount, a.FirstPageURL, PageToken)
	}
	return nil
}

// PageURL returns the image URL of page i.
// Page 0 is the canonical URL; later pages substitute the last page-0 token
// (_p0) with the target index. URLs without the token are returned unchanged.
func (a *Artwork) PageURL(i int) string {
	if i == 0 {
		return a.FirstPageURL
	}
	token := PageToken + "0"
	idx := strings.LastIndex(a.FirstPageURL, token)
	if idx < 0 {
		return a.FirstPageURL
	}
	return a.FirstPageURL[:idx] + PageToken + strconv.Itoa(i) + a.FirstPageURL[idx+len(token):]
}

// PageURLs returns the image URLs of every page in page order.
func (a *Artwork) PageURLs() []string {
	urls := make([]string, a.PageCount)
	for i := range urls {
		urls[i] = a.PageURL(i)
	}
	return urls
}

// ImageFilename returns the final path segment of an image URL.
// Query strings and fragments are ignored.
func ImageFilename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

// Known image extensions, in fallback order.
const (
	ExtJPG = ".jpg"
	ExtPNG = ".png"
)

// ImageURLCandidates returns the URLs to try for one image page: the URL
// itself followed by the same URL with its extension toggled between .jpg and
// .png. Each known extension appears at most once. URLs with any other
// extension have no alternate.
func ImageURLCandidates(rawURL string) []string {
	ext := path.Ext(ImageFilename(rawURL))
	var alt string
	switch ext {
	case ExtJPG:
		alt = ExtPNG
	case ExtPNG:
		alt = ExtJPG
	default:
		return []string{rawURL}
	}

	base, rest := rawURL, ""
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		base, rest = rawURL[:i], rawURL[i:]
	}
	return []string{rawURL, strings.TrimSuffix(base, ext) + alt + rest}
}

// ArtworkParser extracts artwork metadata from a detail page.
type ArtworkParser interface {
	// ParseArtwork reads the embedded metadata block of a detail page.
	// Returns ELAYOUT if the block is absent and EINVALID if it cannot be decoded.
	ParseArtwork(html string, id int64) (*Artwork, error)
}

// ItemResolver downloads one artwork, gated by the ledger.
type ItemResolver interface {
	ResolveItem(ctx context.Context, detailURL string, id int64) (*ItemResult, error)
}

// ItemOutcome describes what happened to one listing entry.
type ItemOutcome int

const (
	// ItemDownloaded means every page was written and the ledger updated.
	ItemDownloaded ItemOutcome = iota
	// ItemSkipped means the ledger already recorded the artwork.
	ItemSkipped
)

// ItemResult holds the outcome of resolving one artwork.
type ItemResult struct {
	ID      int64
	Outcome ItemOutcome
	Pages   int
	Bytes   int64
}
