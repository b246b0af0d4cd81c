package goquery

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/illustdl"
)

// MetadataSelector matches the element whose content attribute embeds the
// artwork metadata as JSON.
const MetadataSelector = "#meta-preload-data"

// preloadData is the subset of the embedded metadata the crawler reads.
// Artworks are keyed by their decimal ID.
type preloadData struct {
	Illust map[string]struct {
		PageCount int `json:"pageCount"`
		URLs      struct {
			Original *string `json:"original"`
		} `json:"urls"`
	} `json:"illust"`
}

// ParseArtwork reads page count and the canonical page-0 image URL from the
// metadata block of a detail page.
func (p *Parser) ParseArtwork(html string, id int64) (*illustdl.Artwork, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "failed to parse HTML: %v", err)
	}

	content, ok := doc.Find(MetadataSelector).First().Attr("content")
	if !ok {
		return nil, illustdl.Errorf(illustdl.ELAYOUT, "artwork %d: detail page has no metadata block", id)
	}

	var data preloadData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "artwork %d: invalid metadata: %v", id, err)
	}

	key := strconv.FormatInt(id, 10)
	illust, ok := data.Illust[key]
	if !ok {
		return nil, illustdl.Errorf(illustdl.ELAYOUT, "artwork %d: metadata does not describe the artwork", id)
	}
	if illust.URLs.Original == nil || *illust.URLs.Original == "" {
		return nil, illustdl.Errorf(illustdl.ELAYOUT, "artwork %d: original image URL withheld; the session cookie may have expired", id)
	}

	artwork := &illustdl.Artwork{
		ID:           id,
		PageCount:    illust.PageCount,
		FirstPageURL: *illust.URLs.Original,
	}
	if err := artwork.Validate(); err != nil {
		return nil, err
	}
	return artwork, nil
}
