package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sttLatencyMs, sttDownloadBytes, sttSegmentationTotal) }

var sttLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "stt_call_latency_ms",
		Help:    "Speech-to-text call latency distribution in milliseconds.",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
	},
	[]string{"success"},
)

var sttDownloadBytes = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "stt_download_bytes",
		Help:    "Downloaded recording sizes in bytes.",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
	},
)

var sttSegmentationTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stt_role_segmentation_total",
		Help: "Role segmentation attempts, labeled by result.",
	},
	[]string{"result"}, // 'segmented', 'fallback'
)

func ObserveSTTLatency(ms float64, success bool) {
	sttLatencyMs.WithLabelValues(boolLabel(success)).Observe(ms)
}

func ObserveDownloadBytes(n int) { sttDownloadBytes.Observe(float64(n)) }

func IncSegmentation(result string) {
	sttSegmentationTotal.WithLabelValues(result).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
