package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/illustdl"
	"github.com/fwojciec/illustdl/crawl"
	"github.com/fwojciec/illustdl/viper"
	"github.com/fwojciec/illustdl/zip"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *viper.Config
	Logger  *slog.Logger
	Cursor  illustdl.CursorStore
	Ledger  illustdl.Ledger
	Images  illustdl.ImageStore
	Crawler *crawl.Crawler
	Packer  *zip.Packer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" type:"path" help:"Configuration file (default: config.yml next to the executable)"`

	Crawl  CrawlCmd  `cmd:"" help:"Download the ranking, resuming from the saved listing page"`
	Pack   PackCmd   `cmd:"" help:"Pack downloaded images into zip archives"`
	Status StatusCmd `cmd:"" help:"Show ledger size, crawl cursor and image directory"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Start string `short:"s" help:"Listing page to start from instead of the saved cursor"`
}

// PackCmd is the "pack" subcommand.
type PackCmd struct {
	PerArchive int    `short:"n" help:"Images per archive (default from config)"`
	Output     string `short:"o" help:"Archive name pattern with one integer verb (default from config)"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
