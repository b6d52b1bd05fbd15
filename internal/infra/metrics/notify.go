package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notification sink sends, labeled by result.",
	},
	[]string{"result"}, // 'ok', 'error'
)

func IncNotification(result string) {
	notificationsTotal.WithLabelValues(result).Inc()
}
