// Package metrics exposes Prometheus instrumentation for the data-access
// layer. Collectors register on the default registry; a consuming process
// serves them however it likes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Statements counts executed statements by table and operation.
	Statements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "db",
		Name:      "statements_total",
		Help:      "Statements executed by the data-access layer.",
	}, []string{"table", "op"})

	// StatementErrors counts failed statements by table and operation.
	StatementErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "db",
		Name:      "statement_errors_total",
		Help:      "Statements that returned an error.",
	}, []string{"table", "op"})

	// ConnectRetries counts connection attempts made after the first one
	// while waiting for a suspended database to wake up.
	ConnectRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "db",
		Name:      "connect_retries_total",
		Help:      "Connection retries during database wake-up.",
	})

	// MigrationsApplied counts migrations applied or rolled back, by direction.
	MigrationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "db",
		Name:      "migrations_total",
		Help:      "Schema migrations run, labeled up or down.",
	}, []string{"direction"})
)
