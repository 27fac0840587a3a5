// Package hsmsmetrics exposes Prometheus counters and gauges for the gate
// (§11 DOMAIN STACK). It owns no decoder state; callers report events as
// they happen.
package hsmsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hsms_gate"

var (
	messagesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_decoded_total",
			Help:      "Messages successfully decoded, by message type.",
		},
		[]string{"message_type"},
	)

	bytesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_consumed_total",
			Help:      "Bytes handed to Decode, by connection.",
		},
		[]string{"conn_id"},
	)

	bufferGrowEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_grow_events_total",
			Help:      "Receive buffer reallocations across all decoders.",
		},
	)

	protocolErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Fatal framing/semantic anomalies surfaced by Decode, by op.",
		},
		[]string{"op"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently connected equipment sessions.",
		},
	)

	bufferCapacityBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_capacity_bytes",
			Help:      "Current receive buffer capacity, by connection.",
		},
		[]string{"conn_id"},
	)
)

// MessageDecoded records one successfully dispatched message.
func MessageDecoded(messageType string) {
	messagesDecoded.WithLabelValues(messageType).Inc()
}

// BytesConsumed records n bytes handed to Decode for connID.
func BytesConsumed(connID string, n int) {
	bytesConsumed.WithLabelValues(connID).Add(float64(n))
}

// BufferGrew records one receive-buffer reallocation.
func BufferGrew() {
	bufferGrowEvents.Inc()
}

// ProtocolErrorObserved records one fatal framing/semantic anomaly for op.
func ProtocolErrorObserved(op string) {
	protocolErrors.WithLabelValues(op).Inc()
}

// ConnectionOpened/ConnectionClosed track the active connection gauge.
func ConnectionOpened() { activeConnections.Inc() }
func ConnectionClosed() { activeConnections.Dec() }

// SetBufferCapacity records the current receive buffer size for connID.
func SetBufferCapacity(connID string, capacity int) {
	bufferCapacityBytes.WithLabelValues(connID).Set(float64(capacity))
}
