// Package metrics defines the custom Prometheus metrics of the marketplace
// account API. HTTP request metrics come from echoprometheus; the metrics here
// describe account operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// AuthOperationsTotal counts account operations.
// Labels:
//   - operation: register, login, profile, upgrade_to_vendor, refresh
//   - outcome: "success" or the failure kind (e.g. "conflict", "authentication")
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of account operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// AuthOperationDuration measures how long an account operation takes inside
// the service, excluding request binding and validation.
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_operation_duration_seconds",
		Help:      "Duration of account operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// VendorUpgradesTotal counts users promoted to VENDOR.
var VendorUpgradesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_upgrades_total",
		Help:      "Total number of successful REGULAR to VENDOR upgrades.",
	},
)
