package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "homeroom"

// Metrics holds all Homeroom metric instruments.
type Metrics struct {
	TenantsResolved metric.Int64Counter
	TenantsRejected metric.Int64Counter
	AuthzDecisions  metric.Int64Counter
	KeysIssued      metric.Int64Counter
	KeysRevoked     metric.Int64Counter
	RosterSignups   metric.Int64Counter
	RosterRemovals  metric.Int64Counter
	ResolveDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TenantsResolved, err = meter.Int64Counter("homeroom.tenants.resolved",
		metric.WithDescription("Number of tenant lookups that resolved a tenant"))
	if err != nil {
		return nil, err
	}

	m.TenantsRejected, err = meter.Int64Counter("homeroom.tenants.rejected",
		metric.WithDescription("Number of tenant lookups that failed"))
	if err != nil {
		return nil, err
	}

	m.AuthzDecisions, err = meter.Int64Counter("homeroom.authz.decisions",
		metric.WithDescription("Number of authorization decisions"))
	if err != nil {
		return nil, err
	}

	m.KeysIssued, err = meter.Int64Counter("homeroom.keys.issued",
		metric.WithDescription("Number of tenant auth keys issued"))
	if err != nil {
		return nil, err
	}

	m.KeysRevoked, err = meter.Int64Counter("homeroom.keys.revoked",
		metric.WithDescription("Number of tenant auth keys revoked"))
	if err != nil {
		return nil, err
	}

	m.RosterSignups, err = meter.Int64Counter("homeroom.roster.signups",
		metric.WithDescription("Number of activity signups"))
	if err != nil {
		return nil, err
	}

	m.RosterRemovals, err = meter.Int64Counter("homeroom.roster.removals",
		metric.WithDescription("Number of activity unregistrations"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("homeroom.resolve.duration_seconds",
		metric.WithDescription("Tenant resolution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
