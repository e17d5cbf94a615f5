package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resultados usados como label nas métricas de escrow.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goescrow_http_requests_total",
		Help: "Total de requisições HTTP",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goescrow_http_request_duration_seconds",
		Help:    "Duração das requisições HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	jobPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goescrow_job_payments_total",
		Help: "Pagamentos de jobs por resultado",
	}, []string{"result"})

	deposits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goescrow_deposits_total",
		Help: "Depósitos de saldo por resultado",
	}, []string{"result"})

	reportCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goescrow_report_cache_total",
		Help: "Consultas ao cache de relatórios (hit/miss)",
	}, []string{"report", "outcome"})
)

// ObserveHTTPRequest registra uma requisição HTTP.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveJobPayment conta uma tentativa de pagamento de job.
func ObserveJobPayment(result string) {
	jobPayments.WithLabelValues(result).Inc()
}

// ObserveDeposit conta uma tentativa de depósito.
func ObserveDeposit(result string) {
	deposits.WithLabelValues(result).Inc()
}

// ObserveReportCache conta hits e misses do cache de relatórios.
func ObserveReportCache(report string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	reportCache.WithLabelValues(report, outcome).Inc()
}
