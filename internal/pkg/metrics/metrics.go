// Package metrics defines and registers all custom Prometheus metrics for the
// reports API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fieldreports"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts self-registrations.
// Label:
//   - result: "success", "duplicate", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthorizationsTotal counts access decisions made by the policy guard.
// Labels:
//   - operation: policy operation (e.g. "reports.create")
//   - result: "allowed", "missing_token", "invalid_token", "forbidden" or "error"
var AuthorizationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "authorizations_total",
		Help:      "Total number of authorization decisions, by operation and result.",
	},
	[]string{"operation", "result"},
)

// UserUpdatesTotal counts administrator changes to accounts.
// Label:
//   - result: "success", "invalid", "self_lockout", "not_found" or "error"
var UserUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "user_updates_total",
		Help:      "Total number of account updates made by administrators, by result.",
	},
	[]string{"result"},
)

// PasswordHashDuration measures bcrypt hashing latency.
var PasswordHashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hashing.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events that were persisted.
// Label:
//   - kind: audit event kind (e.g. "login_failed")
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Total number of audit events persisted, by kind.",
	},
	[]string{"kind"},
)

// AuditEventsDroppedTotal counts audit events discarded because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "events_dropped_total",
		Help:      "Total number of audit events dropped due to a full queue.",
	},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "queue_depth",
		Help:      "Current number of events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportsCreatedTotal counts newly created reports.
// Label:
//   - status: initial report status
var ReportsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "created_total",
		Help:      "Total number of reports created, by initial status.",
	},
	[]string{"status"},
)
