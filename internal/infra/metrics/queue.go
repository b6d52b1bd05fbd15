package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueItemsProcessedTotal, queueDepth, queueBatchesTotal) }

var queueItemsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recording_queue_items_processed_total",
		Help: "Total queue items driven through the pipeline, labeled by outcome.",
	},
	[]string{"outcome"}, // 'done', 'error', 'skipped'
)

var queueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "recording_queue_depth",
		Help: "Current number of queue items per status.",
	},
	[]string{"status"},
)

var queueBatchesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "recording_queue_batches_total",
		Help: "Total number of claimed batches.",
	},
)

func IncQueueItem(outcome string) {
	queueItemsProcessedTotal.WithLabelValues(outcome).Inc()
}

func SetQueueDepth(status string, n int) {
	queueDepth.WithLabelValues(status).Set(float64(n))
}

func IncQueueBatch() { queueBatchesTotal.Inc() }
