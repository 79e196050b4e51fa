package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pos_auth"

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	// OutcomeUnknownEmail is counted for reset requests that matched no account.
	OutcomeUnknownEmail = "unknown_email"
	// OutcomeNotifyFailed is counted when the OTP was stored but not delivered.
	OutcomeNotifyFailed = "notify_failed"
)

// Reset holds the password reset collectors. A nil *Reset is valid and
// records nothing.
type Reset struct {
	requests      *prometheus.CounterVec
	verifications *prometheus.CounterVec
	resets        *prometheus.CounterVec
	swept         prometheus.Counter
}

func NewReset(reg prometheus.Registerer) (*Reset, error) {
	m := &Reset{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_requests_total",
			Help:      "Password reset OTP requests by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset completions by outcome.",
		}, []string{"outcome"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otps_swept_total",
			Help:      "Expired OTP rows deleted by cleanup.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.verifications, m.resets, m.swept} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Reset) ObserveRequest(outcome string) {
	if m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Reset) ObserveVerification(outcome string) {
	if m != nil {
		m.verifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Reset) ObserveReset(outcome string) {
	if m != nil {
		m.resets.WithLabelValues(outcome).Inc()
	}
}

func (m *Reset) AddSwept(n int64) {
	if m != nil && n > 0 {
		m.swept.Add(float64(n))
	}
}
