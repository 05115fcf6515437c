// Package metrics defines the custom Prometheus metrics of the spamguard API.
// Every metric is registered with the default registry through promauto and
// exposed at /metrics next to the echoprometheus HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spamguard"

// ── Prediction metrics ────────────────────────────────────────────────────────

// PredictionsTotal counts /spam/check outcomes.
// Label:
//   - outcome: "ok", "model_unavailable", "shape_mismatch", "error"
var PredictionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of prediction requests, by outcome.",
	},
	[]string{"outcome"},
)

// PredictionDuration measures the time spent inside the inference service,
// including a model reload when one is due.
var PredictionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Duration of a single prediction, including model loading.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Artifact metrics ──────────────────────────────────────────────────────────

// ArtifactUploadsTotal counts upload attempts.
// Label:
//   - outcome: "ok", "empty", "too_large", "error"
var ArtifactUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifact_uploads_total",
		Help:      "Total number of model artifact uploads, by outcome.",
	},
	[]string{"outcome"},
)

// ArtifactDownloadsTotal counts download attempts.
// Label:
//   - outcome: "ok", "not_found", "error"
var ArtifactDownloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifact_downloads_total",
		Help:      "Total number of model artifact downloads, by outcome.",
	},
	[]string{"outcome"},
)

// ArtifactBytes is the size of the most recently committed artifact.
var ArtifactBytes = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "artifact_bytes",
		Help:      "Size in bytes of the currently committed model artifact.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the access guard or login.
// Label:
//   - reason: "missing_token", "expired", "invalid_signature", "malformed",
//     "forbidden_role", "invalid_credentials"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication or authorization attempts.",
	},
	[]string{"reason"},
)

// AuditEventsDroppedTotal counts audit events dropped because the dispatcher
// buffer was full or closed.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of artifact audit events dropped before persistence.",
	},
)
