package crawl_test

import (
	"context"
	"testing"

	"github.com/fwojciec/illustdl"
	"github.com/fwojciec/illustdl/crawl"
	"github.com/fwojciec/illustdl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingChain returns a ListResolver serving results keyed by URL and
// recording the order of requested pages.
func listingChain(results map[string]*illustdl.ListingResult, visited *[]string) *mock.ListResolver {
	return &mock.ListResolver{
		ResolveListPageFn: func(_ context.Context, url string) (*illustdl.ListingResult, error) {
			*visited = append(*visited, url)
			r, ok := results[url]
			if !ok {
				return nil, illustdl.Errorf(illustdl.ELAYOUT, "unexpected page %s", url)
			}
			return r, nil
		},
	}
}

func TestCrawler_Run(t *testing.T) {
	t.Parallel()

	t.Run("follows next links until the last page", func(t *testing.T) {
		t.Parallel()

		var visited []string
		c := &crawl.Crawler{
			Lister: listingChain(map[string]*illustdl.ListingResult{
				"https://example.com/r?p=1": {URL: "https://example.com/r?p=1", NextURL: "https://example.com/r?p=2", Downloaded: 2, Skipped: 1, Bytes: 100},
				"https://example.com/r?p=2": {URL: "https://example.com/r?p=2", NextURL: "https://example.com/r?p=3", Downloaded: 1, Failed: 1, Bytes: 50},
				"https://example.com/r?p=3": {URL: "https://example.com/r?p=3", Skipped: 4},
			}, &visited),
		}

		result, err := c.Run(context.Background(), "https://example.com/r?p=1")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/r?p=1", "https://example.com/r?p=2", "https://example.com/r?p=3"}, visited)
		assert.True(t, result.Complete)
		assert.Equal(t, 3, result.Pages)
		assert.Equal(t, 3, result.Downloaded)
		assert.Equal(t, 5, result.Skipped)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, int64(150), result.Bytes)
		assert.Equal(t, "https://example.com/r?p=3", result.LastURL)
	})

	t.Run("starts from the persisted cursor when no start URL is given", func(t *testing.T) {
		t.Parallel()

		var visited []string
		c := &crawl.Crawler{
			Lister: listingChain(map[string]*illustdl.ListingResult{
				"https://example.com/r?p=7": {URL: "https://example.com/r?p=7"},
			}, &visited),
			Cursor: &mock.CursorStore{
				LoadCursorFn: func() (string, error) { return "https://example.com/r?p=7", nil },
			},
		}

		result, err := c.Run(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/r?p=7"}, visited)
		assert.True(t, result.Complete)
	})

	t.Run("explicit start URL overrides the cursor", func(t *testing.T) {
		t.Parallel()

		var visited []string
		c := &crawl.Crawler{
			Lister: listingChain(map[string]*illustdl.ListingResult{
				"https://example.com/r?p=1": {URL: "https://example.com/r?p=1"},
			}, &visited),
			Cursor: &mock.CursorStore{
				LoadCursorFn: func() (string, error) {
					t.Fatal("cursor should not be loaded")
					return "", nil
				},
			},
		}

		_, err := c.Run(context.Background(), "https://example.com/r?p=1")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/r?p=1"}, visited)
	})

	t.Run("empty cursor is invalid", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Lister: &mock.ListResolver{},
			Cursor: &mock.CursorStore{
				LoadCursorFn: func() (string, error) { return "", nil },
			},
		}

		_, err := c.Run(context.Background(), "")

		assert.Equal(t, illustdl.EINVALID, illustdl.ErrorCode(err))
	})

	t.Run("stops on layout error and reports progress so far", func(t *testing.T) {
		t.Parallel()

		var visited []string
		c := &crawl.Crawler{
			Lister: listingChain(map[string]*illustdl.ListingResult{
				"https://example.com/r?p=1": {URL: "https://example.com/r?p=1", NextURL: "https://example.com/r?p=2", Downloaded: 3},
			}, &visited),
		}

		result, err := c.Run(context.Background(), "https://example.com/r?p=1")

		assert.Equal(t, illustdl.ELAYOUT, illustdl.ErrorCode(err))
		assert.False(t, result.Complete)
		assert.Equal(t, 1, result.Pages)
		assert.Equal(t, 3, result.Downloaded)
		assert.Equal(t, "https://example.com/r?p=1", result.LastURL)
	})

	t.Run("stops on unavailable network", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Lister: &mock.ListResolver{
				ResolveListPageFn: func(context.Context, string) (*illustdl.ListingResult, error) {
					return nil, illustdl.Errorf(illustdl.EUNAVAILABLE, "circuit open")
				},
			},
		}

		result, err := c.Run(context.Background(), "https://example.com/r?p=1")

		assert.Equal(t, illustdl.EUNAVAILABLE, illustdl.ErrorCode(err))
		assert.Equal(t, 0, result.Pages)
		assert.Empty(t, result.LastURL)
	})

	t.Run("page linking to itself is a layout error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := &crawl.Crawler{
			Lister: &mock.ListResolver{
				ResolveListPageFn: func(_ context.Context, url string) (*illustdl.ListingResult, error) {
					calls++
					return &illustdl.ListingResult{URL: url, NextURL: url}, nil
				},
			},
		}

		_, err := c.Run(context.Background(), "https://example.com/r?p=1")

		assert.Equal(t, illustdl.ELAYOUT, illustdl.ErrorCode(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context stops before the next page", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		c := &crawl.Crawler{
			Lister: &mock.ListResolver{
				ResolveListPageFn: func(_ context.Context, url string) (*illustdl.ListingResult, error) {
					calls++
					cancel()
					return &illustdl.ListingResult{URL: url, NextURL: url + "&next"}, nil
				},
			},
		}

		result, err := c.Run(ctx, "https://example.com/r?p=1")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, result.Pages)
	})
}
