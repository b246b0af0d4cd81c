package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/illustdl"
	"github.com/fwojciec/illustdl/bloom"
	"github.com/fwojciec/illustdl/crawl"
	"github.com/fwojciec/illustdl/fs"
	"github.com/fwojciec/illustdl/goquery"
	illusthttp "github.com/fwojciec/illustdl/http"
	"github.com/fwojciec/illustdl/prometheus"
	illustslog "github.com/fwojciec/illustdl/slog"
	"github.com/fwojciec/illustdl/sqlite"
	"github.com/fwojciec/illustdl/viper"
	"github.com/fwojciec/illustdl/zip"
	"github.com/spf13/afero"
)

// crawlWiring holds the services assembled for the crawl command.
type crawlWiring struct {
	Crawler *crawl.Crawler
	Ledger  illustdl.Ledger
	Images  illustdl.ImageStore
	Metrics *prometheus.Metrics
}

// newCrawlWiring builds the crawl pipeline from cfg. Listing and detail
// pages retry transient errors, 5xx, 408 and 429; any other status fails the
// page at once. Image downloads retry transient errors only. Both share one
// circuit breaker.
func newCrawlWiring(ctx context.Context, cfg *viper.Config, db *sqlite.DB, fsys afero.Fs, cursor illustdl.CursorStore, logger *slog.Logger) (*crawlWiring, error) {
	opts := []illusthttp.ClientOption{
		illusthttp.WithTimeout(cfg.Timeout),
		illusthttp.WithSessionCookie(cfg.Cookie),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, illusthttp.WithUserAgent(cfg.UserAgent))
	}
	if cfg.HasProxy() {
		opts = append(opts, illusthttp.WithProxy(illusthttp.Proxy{
			Scheme: cfg.Proxy.Scheme,
			Host:   cfg.Proxy.Host,
			Port:   cfg.Proxy.Port,
		}))
	}
	client, err := illusthttp.NewClient(opts...)
	if err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "proxy: %v", err)
	}

	policy := crawl.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		Multiplier:      crawl.DefaultMultiplier,
	}
	breaker := crawl.NewBreaker(cfg.Retry.BreakerThreshold)
	pageRetrier := &crawl.Retrier{
		Policy:    policy,
		Breaker:   breaker,
		Retryable: illusthttp.IsRetryablePage,
		Logger:    logger,
	}
	imageRetrier := &crawl.Retrier{
		Policy:    policy,
		Breaker:   breaker,
		Retryable: illusthttp.IsTransient,
		Logger:    logger,
	}

	limiter := crawl.NewDomainLimiter(cfg.RateLimit)
	metrics := prometheus.NewMetrics()
	images := newImageStore(fsys, cfg.ImgSavePath)

	var fetcher illustdl.Fetcher = illusthttp.NewFetcher(client, illusthttp.WithFetchLimiter(limiter))
	fetcher = illustslog.NewLoggingFetcher(fetcher, logger)
	fetcher = prometheus.NewMetricsFetcher(fetcher, metrics)

	var downloader illustdl.Downloader = illusthttp.NewDownloader(client, images,
		illusthttp.WithRefererBase(cfg.RefererBase),
		illusthttp.WithDownloadLimiter(limiter),
		illusthttp.WithRetry(imageRetrier.Do),
	)
	downloader = illustslog.NewLoggingDownloader(downloader, logger)
	downloader = prometheus.NewMetricsDownloader(downloader, metrics)

	ledger := bloom.NewLedger(
		illustslog.NewLoggingLedger(sqlite.NewLedgerService(db), logger),
		bloom.NewFilter(bloom.DefaultCapacity, bloom.DefaultFPRate),
	)
	n, err := ledger.Warm(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("ledger warmed", "artworks", n)

	parser := goquery.NewParser()
	items := &crawl.ItemResolver{
		Fetcher:    fetcher,
		Parser:     parser,
		Downloader: downloader,
		Ledger:     ledger,
		Retrier:    pageRetrier,
		Logger:     logger,
	}
	lister := &crawl.ListResolver{
		Fetcher: fetcher,
		Parser:  parser,
		Items:   items,
		Cursor:  cursor,
		Retrier: pageRetrier,
		Logger:  logger,
	}

	return &crawlWiring{
		Crawler: &crawl.Crawler{
			Lister: lister,
			Cursor: cursor,
			Logger: logger,
		},
		Ledger:  ledger,
		Images:  images,
		Metrics: metrics,
	}, nil
}

func newImageStore(fsys afero.Fs, dir string) *fs.ImageStore {
	return fs.NewImageStoreFs(fsys, dir)
}

func newPacker(cfg *viper.Config, fsys afero.Fs, logger *slog.Logger) *zip.Packer {
	return &zip.Packer{
		Store:      newImageStore(fsys, cfg.ImgSavePath),
		Fs:         fsys,
		Output:     cfg.Pack.Output,
		PerArchive: cfg.Pack.PerArchive,
		Logger:     logger,
	}
}

// serveMetrics exposes metrics on addr until the returned func is called.
func serveMetrics(addr string, metrics *prometheus.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
