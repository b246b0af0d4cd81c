package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fwojciec/illustdl"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	count, err := deps.Ledger.Count(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", illustdl.ErrorMessage(err))
		return err
	}

	cursor, err := deps.Cursor.LoadCursor()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", illustdl.ErrorMessage(err))
		return err
	}
	if cursor == "" {
		cursor = "(none)"
	}

	files, err := deps.Images.List()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", illustdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Artworks downloaded: %s\n", humanize.Comma(int64(count)))
	fmt.Fprintf(deps.Stdout, "Cursor:              %s\n", cursor)
	fmt.Fprintf(deps.Stdout, "Images:              %s files", humanize.Comma(int64(len(files))))
	if deps.Config != nil {
		fmt.Fprintf(deps.Stdout, " in %s", deps.Config.ImgSavePath)
	}
	fmt.Fprintln(deps.Stdout)
	return nil
}
