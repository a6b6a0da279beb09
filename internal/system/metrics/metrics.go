// Package metrics holds Prometheus instruments shared across the service.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	InboundSMSTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inbound_sms_total",
			Help: "Cumulative number of inbound SMS webhooks received.",
		})

	StopKeywordTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stop_keyword_total",
			Help: "Cumulative number of inbound messages matching a stop keyword.",
		})

	OptOutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consent_opt_out_total",
			Help: "Cumulative number of consent opt-out transitions by method.",
		}, []string{"method"})

	ReoptRequestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consent_reopt_requested_total",
			Help: "Cumulative number of re-opt-in requests issued.",
		})

	ReoptConfirmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consent_reopt_confirmed_total",
			Help: "Cumulative number of re-opt-in confirmations completed.",
		})

	StripeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_events_total",
			Help: "Cumulative number of Stripe webhook events by type.",
		}, []string{"type"})

	ProviderSendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_send_failures_total",
			Help: "Cumulative number of failed outbound provider calls by provider.",
		}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(
		InboundSMSTotal,
		StopKeywordTotal,
		OptOutTotal,
		ReoptRequestedTotal,
		ReoptConfirmedTotal,
		StripeEventsTotal,
		ProviderSendFailuresTotal,
	)
}
