package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts handled updates by command.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobina_commands_total",
		Help: "Handled chat updates by command.",
	}, []string{"command"})

	// UpstreamFailuresTotal counts failed outbound calls by upstream.
	UpstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobina_upstream_failures_total",
		Help: "Failed calls to third-party APIs by upstream.",
	}, []string{"upstream"})
)

// Command records one handled update for command.
func Command(command string) {
	CommandsTotal.WithLabelValues(command).Inc()
}

// UpstreamFailure records one failed outbound call.
func UpstreamFailure(upstream string) {
	UpstreamFailuresTotal.WithLabelValues(upstream).Inc()
}
