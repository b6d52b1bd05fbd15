package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(analysisTotal, analysisLatencyMs, analysisPromptTokens) }

var analysisTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "call_analysis_total",
		Help: "Completed call-quality analyses, labeled by source path and intent.",
	},
	[]string{"source", "intent"}, // source: 'model' | 'heuristic'
)

var analysisLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "call_analysis_latency_ms",
		Help:    "Scoring-model call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000},
	},
	[]string{"success"},
)

var analysisPromptTokens = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "call_analysis_prompt_tokens",
		Help:    "Prompt token counts sent to the scoring model.",
		Buckets: []float64{128, 256, 512, 1024, 2048, 4096, 8192},
	},
)

func IncAnalysis(source, intent string) {
	analysisTotal.WithLabelValues(source, intent).Inc()
}

func ObserveAnalysisLatency(ms float64, success bool) {
	analysisLatencyMs.WithLabelValues(boolLabel(success)).Observe(ms)
}

func ObservePromptTokens(n int) { analysisPromptTokens.Observe(float64(n)) }
