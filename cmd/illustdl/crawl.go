package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fwojciec/illustdl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	result, err := deps.Crawler.Run(deps.Ctx, c.Start)
	if result != nil {
		fmt.Fprintf(deps.Stdout, "%d pages, %d downloaded, %d skipped, %d failed, %s in %s\n",
			result.Pages,
			result.Downloaded,
			result.Skipped,
			result.Failed,
			humanize.IBytes(uint64(result.Bytes)),
			result.Elapsed.Round(time.Millisecond),
		)
		if result.Complete {
			fmt.Fprintln(deps.Stdout, "Reached the end of the listing.")
		}
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", illustdl.ErrorMessage(err))
		switch illustdl.ErrorCode(err) {
		case illustdl.ELAYOUT:
			fmt.Fprintln(deps.Stderr, "Hint: the session cookie may have expired or the site layout changed")
		case illustdl.EUNAVAILABLE:
			fmt.Fprintln(deps.Stderr, "Hint: the network is unavailable; run again to resume from the saved page")
		}
		return err
	}
	return nil
}
