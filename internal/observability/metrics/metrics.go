package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking workflow.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	lookupsTotal     *prometheus.CounterVec
	captchaTotal     *prometheus.CounterVec
	submitLatency    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total appointment submission attempts",
		}, []string{"status"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "lookups_total",
			Help:      "Total booking lookup requests",
		}, []string{"status"}),
		captchaTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "captcha_verifications_total",
			Help:      "Total CAPTCHA verification outcomes",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of appointment submission processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.lookupsTotal, m.captchaTotal, m.submitLatency)
	return m
}

func (m *BookingMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveLookup(status string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCaptcha(outcome string) {
	if m == nil {
		return
	}
	m.captchaTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSubmitLatency(seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(seconds)
}
