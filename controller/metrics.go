package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/linodeDdns/app/reconcile"
)

// Prometheus metrics registered on the default registry.
var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linode_ddns_cycles_total",
		Help: "Total number of reconciliation cycles by result.",
	}, []string{"result"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linode_ddns_cycle_duration_seconds",
		Help:    "Duration of reconciliation cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linode_ddns_record_operations_total",
		Help: "Total number of applied record operations by action and family.",
	}, []string{"action", "family"})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linode_ddns_last_success_timestamp_seconds",
		Help: "Unix time of the last successful cycle.",
	})
)

func observeCycle(d time.Duration, res *reconcile.Result, err error) {
	cycleDuration.Observe(d.Seconds())
	if res != nil {
		for _, op := range res.Applied {
			operationsTotal.WithLabelValues(op.Action.String(), op.Family.String()).Inc()
		}
	}

	if err != nil {
		cyclesTotal.WithLabelValues("error").Inc()
		return
	}
	cyclesTotal.WithLabelValues("success").Inc()
	lastSuccess.SetToCurrentTime()
}

// serveMetrics exposes /metrics, /healthz (liveness) and /readyz (last cycle
// succeeded) when Metrics.Address is set.
func (s *Service) serveMetrics() {
	if s.conf.Metrics == nil || s.conf.Metrics.Address == "" {
		return
	}

	srv := &http.Server{
		Addr:              s.conf.Metrics.Address,
		Handler:           s.handler(),
		ReadHeaderTimeout: time.Second * 5,
	}
	s.Lock()
	if s.closed {
		s.Unlock()
		return
	}
	s.metrics = srv
	s.Unlock()

	go func() {
		log.Infof("Metrics listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server: %v", err)
		}
	}()
}

func (s *Service) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.healthy.Load() {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "not ready")
		}
	})
	return mux
}
