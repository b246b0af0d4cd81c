package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fwojciec/illustdl"
)

// Run executes the pack command.
func (c *PackCmd) Run(deps *Dependencies) error {
	packer := *deps.Packer
	if c.PerArchive > 0 {
		packer.PerArchive = c.PerArchive
	}
	if c.Output != "" {
		packer.Output = c.Output
	}

	result, err := packer.Pack(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", illustdl.ErrorMessage(err))
		return err
	}

	if len(result.Archives) == 0 {
		fmt.Fprintln(deps.Stdout, "No images to pack.")
		return nil
	}
	for _, a := range result.Archives {
		fmt.Fprintf(deps.Stdout, "%s  %d images  %s\n", a.Path, a.Files, humanize.IBytes(uint64(a.Bytes)))
	}
	for _, name := range result.Skipped {
		fmt.Fprintf(deps.Stderr, "skipped unreadable image %s\n", name)
	}
	return nil
}
