package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	filesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfpress",
			Name:      "files_processed_total",
			Help:      "Total files processed by result (success, failure kind)",
		},
		[]string{"result"},
	)

	fileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfpress",
			Name:      "file_duration_seconds",
			Help:      "Duration of per-file recompression",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfpress",
			Name:      "pages_processed_total",
			Help:      "Total pages processed by strategy (preserved, rasterized)",
		},
		[]string{"strategy"},
	)

	bytesIn = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfpress",
			Name:      "input_bytes_total",
			Help:      "Total input bytes accepted into the pipeline",
		},
	)

	bytesOut = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfpress",
			Name:      "output_bytes_total",
			Help:      "Total output bytes produced by the pipeline",
		},
	)

	batchFiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfpress",
			Name:      "batch_files_inflight",
			Help:      "Files held by the batch currently being processed",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(filesProcessed, fileDuration, pagesProcessed, bytesIn, bytesOut, batchFiles)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveFile(result string, dur time.Duration) {
	filesProcessed.WithLabelValues(result).Inc()
	fileDuration.Observe(dur.Seconds())
}

func IncPage(strategy string) { pagesProcessed.WithLabelValues(strategy).Inc() }
func AddBytesIn(n int)        { bytesIn.Add(float64(n)) }
func AddBytesOut(n int)       { bytesOut.Add(float64(n)) }
func SetBatchFiles(n int)     { batchFiles.Set(float64(n)) }
