package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics holds the Prometheus collectors for the authentication flow.
type AuthMetrics struct {
	LoginAttempts      *prometheus.CounterVec
	AccountLockouts    prometheus.Counter
	MFAVerifications   *prometheus.CounterVec
	SessionsRevoked    *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	AuditExportErrors  prometheus.Counter
}

// Attach registers the authentication collectors with the provided registerer
// and returns a handle for incrementing them.
func Attach(reg prometheus.Registerer) (*AuthMetrics, error) {
	if reg == nil {
		return nil, fmt.Errorf("registerer is nil")
	}

	factory := promauto.With(reg)

	return &AuthMetrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "login_attempts_total",
			Help:      "Total login attempts partitioned by outcome.",
		}, []string{"result"}),
		AccountLockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "account_lockouts_total",
			Help:      "Total accounts transitioned into the locked state.",
		}),
		MFAVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "mfa_verifications_total",
			Help:      "Total TOTP verification attempts partitioned by outcome.",
		}, []string{"result"}),
		SessionsRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "sessions_revoked_total",
			Help:      "Total sessions revoked partitioned by reason.",
		}, []string{"reason"}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "audit_write_failures_total",
			Help:      "Total audit entries that could not be persisted.",
		}),
		AuditExportErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "opauth",
			Name:      "audit_export_errors_total",
			Help:      "Total audit events that could not be exported to the event stream.",
		}),
	}, nil
}

// Nop returns collectors backed by a throwaway registry. Used by tests and
// callers that do not report metrics.
func Nop() *AuthMetrics {
	m, _ := Attach(prometheus.NewRegistry())
	return m
}
