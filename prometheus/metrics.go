// Package prometheus exposes crawl metrics through decorators around the
// Fetcher and the Downloader.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/illustdl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "illustdl"

// Metrics holds the crawler's collectors in a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	pageFetches      *prometheus.CounterVec
	fetchDuration    prometheus.Histogram
	imageDownloads   *prometheus.CounterVec
	imageBytes       prometheus.Counter
	downloadDuration prometheus.Histogram
	extensionSwaps   prometheus.Counter
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, in a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pageFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: Namespace, Name: "page_fetches_total", Help: "Listing and detail page fetches by outcome"},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "page_fetch_duration_seconds",
			Help:      "Page fetch duration",
			Buckets:   prometheus.ExponentialBucketsRange(0.05, 60, 12),
		}),
		imageDownloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: Namespace, Name: "image_downloads_total", Help: "Image page downloads by outcome"},
			[]string{"outcome"},
		),
		imageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_bytes_total",
			Help:      "Bytes of image data written",
		}),
		downloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "image_download_duration_seconds",
			Help:      "Image download duration including retries and extension fallback",
			Buckets:   prometheus.ExponentialBucketsRange(0.05, 300, 14),
		}),
		extensionSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_extension_fallbacks_total",
			Help:      "Images served under the alternate file extension",
		}),
	}
	m.registry.MustRegister(
		m.pageFetches,
		m.fetchDuration,
		m.imageDownloads,
		m.imageBytes,
		m.downloadDuration,
		m.extensionSwaps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// outcome maps an error to a low-cardinality label value.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	code := illustdl.ErrorCode(err)
	if code == illustdl.EINTERNAL {
		return "error"
	}
	return strings.ToLower(code)
}

// Ensure the decorators implement the domain interfaces at compile time.
var (
	_ illustdl.Fetcher    = (*MetricsFetcher)(nil)
	_ illustdl.Downloader = (*MetricsDownloader)(nil)
)

// MetricsFetcher wraps a Fetcher with page fetch metrics.
type MetricsFetcher struct {
	next    illustdl.Fetcher
	metrics *Metrics
}

// NewMetricsFetcher creates a new MetricsFetcher.
func NewMetricsFetcher(next illustdl.Fetcher, metrics *Metrics) *MetricsFetcher {
	return &MetricsFetcher{next: next, metrics: metrics}
}

func (f *MetricsFetcher) Fetch(ctx context.Context, url string) (string, error) {
	begin := time.Now()
	html, err := f.next.Fetch(ctx, url)
	f.metrics.fetchDuration.Observe(time.Since(begin).Seconds())
	f.metrics.pageFetches.WithLabelValues(outcome(err)).Inc()
	return html, err
}

// MetricsDownloader wraps a Downloader with image download metrics.
type MetricsDownloader struct {
	next    illustdl.Downloader
	metrics *Metrics
}

// NewMetricsDownloader creates a new MetricsDownloader.
func NewMetricsDownloader(next illustdl.Downloader, metrics *Metrics) *MetricsDownloader {
	return &MetricsDownloader{next: next, metrics: metrics}
}

func (d *MetricsDownloader) Download(ctx context.Context, req illustdl.DownloadRequest) (*illustdl.DownloadResult, error) {
	begin := time.Now()
	result, err := d.next.Download(ctx, req)
	d.metrics.downloadDuration.Observe(time.Since(begin).Seconds())
	d.metrics.imageDownloads.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		d.metrics.imageBytes.Add(float64(result.Bytes))
		if result.URL != req.URL {
			d.metrics.extensionSwaps.Inc()
		}
	}
	return result, err
}
