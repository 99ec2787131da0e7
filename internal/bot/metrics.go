package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankbot_commands_total",
		Help: "Handled commands and prompt answers by outcome",
	}, []string{"command", "outcome"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankbot_command_duration_seconds",
		Help:    "Time from acknowledgement to final reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	flowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankbot_confirm_flows_total",
		Help: "Confirmation flow transitions by kind and resulting state",
	}, []string{"kind", "state"})
)
