package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChainCallLatency latencia de envío + confirmación por operación (requestAccess, approve, ...).
	ChainCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hellodid_chain_call_latency_seconds",
		Help:    "Latencia de llamadas on-chain (submit + wait) en segundos",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"op"})

	ChainCallFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodid_chain_call_failures_total",
		Help: "Llamadas on-chain fallidas por operación",
	}, []string{"op"})

	// ConsentOps resultado de cada operación del protocolo de consentimiento.
	ConsentOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodid_consent_operations_total",
		Help: "Operaciones de consentimiento por tipo y resultado",
	}, []string{"op", "outcome"})

	// CacheDrift casos donde la cadena quedó por delante del cache off-chain.
	CacheDrift = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodid_cache_drift_total",
		Help: "Inconsistencias chain-ahead-of-cache detectadas",
	}, []string{"op"})

	ReconcileResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellodid_reconcile_resolved_total",
		Help: "Registros a los que el reconciliador completó el requestId",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodid_http_requests_total",
		Help: "Requests HTTP por ruta y status",
	}, []string{"route", "status"})
)

// Register registra las métricas en reg (o el default si es nil).
// Registrar dos veces no es error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		ChainCallLatency, ChainCallFailures, ConsentOps, CacheDrift, ReconcileResolved, HTTPRequests,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveChainCall registra latencia y, si err != nil, la falla.
func ObserveChainCall(op string, start time.Time, err error) {
	ChainCallLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		ChainCallFailures.WithLabelValues(op).Inc()
	}
}
