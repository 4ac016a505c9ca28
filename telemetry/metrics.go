// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ConnectAttempts   prometheus.Counter
	ReconnectsGivenUp prometheus.Counter
	Disconnects       prometheus.Counter
	MessagesReceived  prometheus.Counter
	WhispersReceived  prometheus.Counter
	MessagesSent      prometheus.Counter
	SendsBlocked      prometheus.Counter
	ChannelsJoined    prometheus.Counter
	JoinTimeouts      prometheus.Counter

	// Histograms (seconds)
	RegistrationDuration prometheus.Observer

	// Gauges
	JoinedChannelsGauge  prometheus.Gauge
	ConnectionStateGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ConnectAttempts = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_connect_attempts_total", Help: "Number of connection attempts"})
		ReconnectsGivenUp = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_reconnects_given_up_total", Help: "Number of times reconnecting was abandoned after the attempt ceiling"})
		Disconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_disconnects_total", Help: "Number of disconnects (any reason)"})
		MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_received_total", Help: "Number of channel messages received"})
		WhispersReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_whispers_received_total", Help: "Number of whispers received"})
		MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_sent_total", Help: "Number of channel messages sent"})
		SendsBlocked = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_sends_blocked_total", Help: "Number of sends refused by spam protection"})
		ChannelsJoined = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_channels_joined_total", Help: "Number of confirmed channel joins"})
		JoinTimeouts = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_join_timeouts_total", Help: "Number of join attempts the server never acknowledged"})
		RegistrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_registration_duration_seconds", Help: "Time from connection attempt to registration", Buckets: prometheus.DefBuckets})
		JoinedChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_joined_channels", Help: "Channels currently joined on the primary connection"})
		ConnectionStateGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_connection_state", Help: "Primary connection state (0=offline 1=connecting 2=registered 3=reconnecting)"})
	})
}

// SetJoinedChannels records the current joined-channel count.
func SetJoinedChannels(n int) {
	if JoinedChannelsGauge != nil {
		JoinedChannelsGauge.Set(float64(n))
	}
}

// SetConnectionState records the primary connection state.
func SetConnectionState(state int) {
	if ConnectionStateGauge != nil {
		ConnectionStateGauge.Set(float64(state))
	}
}

// Inc increments the counter if metrics are initialized. Handlers in the
// session run before Init in some tests, so nil counters must be tolerated.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
