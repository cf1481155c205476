// Package metrics defines and registers all custom Prometheus metrics for the
// meetup API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meetup"

// ── Credential metrics ────────────────────────────────────────────────────────

// SigninsTotal counts signin attempts.
// Label:
//   - outcome: "success", "invalid_credentials" or "error"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of signin attempts, by outcome.",
	},
	[]string{"outcome"},
)

// CodesIssuedTotal counts one-time codes whose dispatch was accepted.
// Label:
//   - flow: "verification" or "forgot_password"
var CodesIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "codes_issued_total",
		Help:      "Total number of one-time codes issued, by flow.",
	},
	[]string{"flow"},
)

// CodeVerificationsTotal counts code redemption attempts.
// Labels:
//   - flow: "verification" or "forgot_password"
//   - outcome: "success", "expired", "incorrect", "no_code", "already_verified", "not_found" or "error"
var CodeVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "code_verifications_total",
		Help:      "Total number of one-time code verification attempts, by flow and outcome.",
	},
	[]string{"flow", "outcome"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailDispatchDuration measures a single SMTP dispatch.
// Label:
//   - result: "accepted", "rejected" or "error"
var MailDispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_dispatch_duration_seconds",
		Help:      "Duration of outbound mail dispatch.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Follow-up metrics ─────────────────────────────────────────────────────────

// FollowUpsTotal counts follow-up jobs.
// Labels:
//   - kind: "comments_count", "user_points" or "followers"
//   - result: "applied", "failed" or "dropped"
var FollowUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "followups_total",
		Help:      "Total number of follow-up jobs, by kind and result.",
	},
	[]string{"kind", "result"},
)

// FollowUpQueueDepth tracks the current number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var FollowUpQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "followup_queue_depth",
		Help:      "Current number of follow-up jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Request metrics ───────────────────────────────────────────────────────────

// IdempotencyTotal counts Idempotency-Key decisions.
// Label:
//   - result: "reserved", "replay" or "error"
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_total",
		Help:      "Total number of idempotency key checks, by result.",
	},
	[]string{"result"},
)
