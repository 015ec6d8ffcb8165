package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds the QuantumFlow Prometheus metrics. A nil *Registry is valid
// and records nothing, so callers never need to guard their calls.
type Registry struct {
	reg *prometheus.Registry

	Decisions         *prometheus.CounterVec
	Composite         *prometheus.GaugeVec
	Allocation        *prometheus.GaugeVec
	Clamps            *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	DegenerateBaskets prometheus.Counter
	BlendedWeight     *prometheus.GaugeVec
	RunDuration       *prometheus.HistogramVec
}

// New builds a registry with all metrics registered on a private
// prometheus.Registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantumflow_decisions_total",
				Help: "Asset decisions produced, by action label and risk profile",
			},
			[]string{"action", "profile"},
		),

		Composite: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantumflow_composite_score",
				Help: "Latest composite score per asset (-1.0 to 1.0)",
			},
			[]string{"ticker"},
		),

		Allocation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantumflow_allocation_fraction",
				Help: "Latest suggested allocation per asset as a fraction of the portfolio",
			},
			[]string{"ticker"},
		),

		Clamps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantumflow_factor_clamps_total",
				Help: "Factor scores clamped into [-1, 1] at the provider boundary",
			},
			[]string{"factor"},
		),

		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantumflow_provider_errors_total",
				Help: "Factor score provider failures by provider",
			},
			[]string{"provider"},
		),

		DegenerateBaskets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quantumflow_degenerate_baskets_total",
				Help: "Rebalances where every tilted weight floored to zero",
			},
		),

		BlendedWeight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantumflow_blended_weight_pct",
				Help: "Latest blended portfolio weight per asset in percent",
			},
			[]string{"ticker"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantumflow_run_duration_seconds",
				Help:    "Duration of scheduled jobs in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"job", "result"},
		),
	}

	r.reg.MustRegister(
		r.Decisions,
		r.Composite,
		r.Allocation,
		r.Clamps,
		r.ProviderErrors,
		r.DegenerateBaskets,
		r.BlendedWeight,
		r.RunDuration,
	)
	return r
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) RecordDecision(ticker, action, profile string, composite, allocation float64) {
	if r == nil {
		return
	}
	r.Decisions.WithLabelValues(action, profile).Inc()
	r.Composite.WithLabelValues(ticker).Set(composite)
	r.Allocation.WithLabelValues(ticker).Set(allocation)
}

func (r *Registry) RecordClamp(factor string) {
	if r == nil {
		return
	}
	r.Clamps.WithLabelValues(factor).Inc()
}

func (r *Registry) RecordProviderError(provider string) {
	if r == nil {
		return
	}
	r.ProviderErrors.WithLabelValues(provider).Inc()
}

func (r *Registry) RecordDegenerateBasket() {
	if r == nil {
		return
	}
	r.DegenerateBaskets.Inc()
}

func (r *Registry) RecordWeight(ticker string, pct float64) {
	if r == nil {
		return
	}
	r.BlendedWeight.WithLabelValues(ticker).Set(pct)
}

// JobTimer tracks the execution time of one scheduled job.
type JobTimer struct {
	r     *Registry
	job   string
	start time.Time
}

func (r *Registry) StartJob(job string) *JobTimer {
	return &JobTimer{r: r, job: job, start: time.Now()}
}

// Stop records the duration under result ("ok" or "error").
func (t *JobTimer) Stop(result string) {
	d := time.Since(t.start)
	if t.r != nil {
		t.r.RunDuration.WithLabelValues(t.job, result).Observe(d.Seconds())
	}
	log.Debug().
		Str("job", t.job).
		Str("result", result).
		Dur("duration", d).
		Msg("job completed")
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
