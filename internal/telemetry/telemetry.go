package telemetry

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/models"
)

// Recorder exposes the monitor's Prometheus series. A nil *Recorder is a no-op.
type Recorder struct {
	decisions     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	tick          *prometheus.GaugeVec
	volatility    *prometheus.GaugeVec
	price         *prometheus.GaugeVec
	lastCheck     *prometheus.GaugeVec
}

// NewRecorder registers the series with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rebalancer_decisions_total", Help: "Rebalance decisions by action"},
			[]string{"pool", "action"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rebalancer_notifications_total", Help: "Alert deliveries by result"},
			[]string{"pool", "result"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rebalancer_check_errors_total", Help: "Failed monitoring cycles"},
			[]string{"pool"},
		),
		tick: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "rebalancer_pool_tick", Help: "Current pool tick"},
			[]string{"pool"},
		),
		volatility: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "rebalancer_pool_daily_volatility", Help: "Daily log-return volatility"},
			[]string{"pool"},
		),
		price: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "rebalancer_pool_price", Help: "Pool price derived from sqrtPrice"},
			[]string{"pool"},
		),
		lastCheck: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "rebalancer_last_check_timestamp_seconds", Help: "Unix time of the last completed check"},
			[]string{"pool"},
		),
	}
	reg.MustRegister(r.decisions, r.notifications, r.fetchErrors, r.tick, r.volatility, r.price, r.lastCheck)
	return r
}

// ObserveCheck records a completed cycle
func (r *Recorder) ObserveCheck(result models.CheckResult) {
	if r == nil {
		return
	}
	pool := result.PoolID
	r.decisions.WithLabelValues(pool, result.Outcome.Decision.Action.String()).Inc()
	r.tick.WithLabelValues(pool).Set(float64(result.Metrics.Tick))
	r.volatility.WithLabelValues(pool).Set(result.Metrics.Volatility)
	r.price.WithLabelValues(pool).Set(result.Metrics.Price)
	r.lastCheck.WithLabelValues(pool).Set(float64(result.CheckedAt.Unix()))

	n := result.Outcome.Notification
	switch {
	case n.Delivered:
		r.notifications.WithLabelValues(pool, "delivered").Inc()
	case n.Attempted:
		r.notifications.WithLabelValues(pool, "failed").Inc()
	}
}

// ObserveError records a cycle that failed before a decision was made
func (r *Recorder) ObserveError(pool string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(pool).Inc()
}

// Serve binds addr and exposes /metrics on it in the background. The
// returned server's Addr is the bound address.
func Serve(addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("Metrics server stopped")
		}
	}()
	return srv, nil
}
