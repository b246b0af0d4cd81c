package mock

import "github.com/fwojciec/illustdl"

// Compile-time interface verification.
var (
	_ illustdl.ListingParser = (*ListingParser)(nil)
	_ illustdl.ArtworkParser = (*ArtworkParser)(nil)
)

// ListingParser is a mock implementation of illustdl.ListingParser.
type ListingParser struct {
	ParseListingFn func(html string, pageURL string) (*illustdl.ListingPage, error)
}

func (p *ListingParser) ParseListing(html string, pageURL string) (*illustdl.ListingPage, error) {
	return p.ParseListingFn(html, pageURL)
}

// ArtworkParser is a mock implementation of illustdl.ArtworkParser.
type ArtworkParser struct {
	ParseArtworkFn func(html string, id int64) (*illustdl.Artwork, error)
}

func (p *ArtworkParser) ParseArtwork(html string, id int64) (*illustdl.Artwork, error) {
	return p.ParseArtworkFn(html, id)
}
