package goquery_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/illustdl"
	"github.com/fwojciec/illustdl/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankingHTML renders a ranking page. An empty next omits the "next" link;
// entries are "id:href" pairs.
func rankingHTML(next string, entries ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div id="wrapper"><div class="layout-body"><div>`)
	b.WriteString(`<div class="ui-fixed-container"><div><nav class="column-menu"></nav><nav class="column-order-menu"><ul>`)
	b.WriteString(`<li class="before"><a href="?mode=daily&amp;p=1">prev</a></li>`)
	if next != "" {
		fmt.Fprintf(&b, `<li class="after"><a href="%s">next</a></li>`, next)
	}
	b.WriteString(`</ul></nav></div></div>`)
	b.WriteString(`<div class="ranking-items-container"><div class="ranking-items adjust">`)
	for _, e := range entries {
		id, href, _ := strings.Cut(e, ":")
		fmt.Fprintf(&b, `<section class="ranking-item" data-id="%s"><div class="ranking-image-item"><a href="%s"><img src="thumb.jpg"></a></div></section>`, id, href)
	}
	b.WriteString(`</div></div></div></div></div></body></html>`)
	return b.String()
}

func TestParser_ParseListing(t *testing.T) {
	t.Parallel()

	t.Run("extracts next page and entries in order", func(t *testing.T) {
		t.Parallel()

		html := rankingHTML("?mode=daily&amp;p=3", "101:/artworks/101", "102:/artworks/102", "7:https://www.example.com/artworks/7")

		page, err := goquery.NewParser().ParseListing(html, "https://www.example.com/ranking.php?mode=daily&p=2")

		require.NoError(t, err)
		assert.Equal(t, "https://www.example.com/ranking.php?mode=daily&p=2", page.URL)
		assert.Equal(t, "https://www.example.com/ranking.php?mode=daily&p=3", page.NextURL)
		assert.False(t, page.Last())
		assert.Equal(t, []illustdl.ListingEntry{
			{ID: 101, DetailURL: "https://www.example.com/artworks/101"},
			{ID: 102, DetailURL: "https://www.example.com/artworks/102"},
			{ID: 7, DetailURL: "https://www.example.com/artworks/7"},
		}, page.Entries)
	})

	t.Run("pager without next link is the end of the listing", func(t *testing.T) {
		t.Parallel()

		html := rankingHTML("", "101:/artworks/101")

		page, err := goquery.NewParser().ParseListing(html, "https://www.example.com/ranking.php?p=10")

		require.NoError(t, err)
		assert.True(t, page.Last())
		assert.Empty(t, page.NextURL)
		require.Len(t, page.Entries, 1)
	})

	t.Run("missing pager is a layout error", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><form id="login"><input name="password"></form></body></html>`

		_, err := goquery.NewParser().ParseListing(html, "https://www.example.com/ranking.php")

		require.Error(t, err)
		assert.Equal(t, illustdl.ELAYOUT, illustdl.ErrorCode(err))
	})

	t.Run("missing ranking container is a layout error", func(t *testing.T) {
		t.Parallel()

		html := strings.Replace(rankingHTML("?p=2"), "ranking-items-container", "something-else", 1)

		_, err := goquery.NewParser().ParseListing(html, "https://www.example.com/ranking.php")

		assert.Equal(t, illustdl.ELAYOUT, illustdl.ErrorCode(err))
	})

	t.Run("entry with invalid id is a layout error", func(t *testing.T) {
		t.Parallel()

		html := rankingHTML("?p=2", "abc:/artworks/abc")

		_, err := goquery.NewParser().ParseListing(html, "https://www.example.com/ranking.php")

		assert.Equal(t, illustdl.ELAYOUT, illustdl.ErrorCode(err))
		assert.Contains(t, illustdl.ErrorMessage(err), "abc")
	})

	t.Run("rejects invalid page URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewParser().ParseListing(rankingHTML(""), "://bad")

		assert.Equal(t, illustdl.EINVALID, illustdl.ErrorCode(err))
	})
}
