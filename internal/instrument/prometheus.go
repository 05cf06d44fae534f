// Package instrument exposes server metrics via prometheus.
package instrument

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "goparley_active_sessions",
		Help: "Number of authenticated sessions currently online.",
	})
	linesRouted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goparley_lines_routed_total",
		Help: "Number of lines routed to a single recipient.",
	})
	broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goparley_broadcasts_total",
		Help: "Number of broadcast fan-outs performed.",
	})
	deliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goparley_delivery_failures_total",
		Help: "Number of sends to users that were not found or offline.",
	})
	privateChats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goparley_private_chats_total",
		Help: "Number of private chats established.",
	})
	decryptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goparley_decrypt_failures_total",
		Help: "Number of private messages that failed to decode or authenticate.",
	})
	queueHighWater = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "goparley_queue_high_water",
		Help: "Delivery queue high-water mark of the most recently torn-down session.",
	})
)

// Init exposes the registered metrics over HTTP on addr.
func Init(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}

// SessionStarted records an authenticated session coming online.
func SessionStarted() { activeSessions.Inc() }

// SessionEnded records a session teardown.
func SessionEnded() { activeSessions.Dec() }

// LineRouted records a direct delivery to one recipient.
func LineRouted() { linesRouted.Inc() }

// BroadcastSent records one broadcast fan-out.
func BroadcastSent() { broadcasts.Inc() }

// DeliveryFailure records a send to an absent or stopped recipient.
func DeliveryFailure() { deliveryFailures.Inc() }

// PrivateChatStarted records an established private chat.
func PrivateChatStarted() { privateChats.Inc() }

// DecryptFailure records a private message that could not be decoded or
// authenticated.
func DecryptFailure() { decryptFailures.Inc() }

// ObserveQueueDepth records the queue high-water mark of a torn-down session.
func ObserveQueueDepth(depth int) {
	queueHighWater.Set(float64(depth))
}
