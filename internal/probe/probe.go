// Package probe runs the emulator detector periodically and exports the
// outcome as Prometheus gauges.
package probe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fluttercommunity/android-id/internal/emulator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const ProcessName = "emulator-probe"

// Detector runs a full detection pass.
type Detector interface {
	Detect(ctx context.Context) (*emulator.Report, error)
}

type Metrics struct {
	detected   prometheus.Gauge
	signatures *prometheus.GaugeVec
	failures   prometheus.Counter
}

// NewMetrics creates the probe gauges and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		detected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "android_id_emulator_detected",
			Help: "1 when the last probe classified the device as an emulator.",
		}),
		signatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "android_id_emulator_signatures",
			Help: "Number of matching emulator signatures in the last probe, by platform.",
		}, []string{"platform"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "android_id_probe_failures_total",
			Help: "Probe runs that could not gather device properties.",
		}),
	}

	for _, c := range []prometheus.Collector{m.detected, m.signatures, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register probe metrics: %w", err)
		}
	}
	return m, nil
}

// Probe is a scheduler process wrapping a Detector.
type Probe struct {
	detector Detector
	metrics  *Metrics
	log      *zerolog.Logger

	running atomic.Bool

	mu   sync.RWMutex
	last *emulator.Report
}

func New(detector Detector, metrics *Metrics, log *zerolog.Logger) *Probe {
	return &Probe{
		detector: detector,
		metrics:  metrics,
		log:      log,
	}
}

func (p *Probe) Name() string {
	return ProcessName
}

func (p *Probe) IsRunning() bool {
	return p.running.Load()
}

// IsComplete is always false; the probe runs until its scheduler stops.
func (p *Probe) IsComplete() bool {
	return false
}

func (p *Probe) Execute(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return nil
	}
	defer p.running.Store(false)

	report, err := p.detector.Detect(ctx)
	if err != nil {
		if p.metrics != nil {
			p.metrics.failures.Inc()
		}
		return fmt.Errorf("emulator probe: %w", err)
	}

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.record(report)
	}

	p.log.Debug().
		Bool("emulator", report.Emulator).
		Int("matches", len(report.Matches)).
		Msg("Emulator probe finished")
	return nil
}

// Last returns the most recent successful report, or nil before the first run.
func (p *Probe) Last() *emulator.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (m *Metrics) record(report *emulator.Report) {
	if report.Emulator {
		m.detected.Set(1)
	} else {
		m.detected.Set(0)
	}

	counts := make(map[emulator.Platform]int)
	for _, match := range report.Matches {
		counts[match.Platform]++
	}

	m.signatures.Reset()
	for platform, n := range counts {
		m.signatures.WithLabelValues(string(platform)).Set(float64(n))
	}
}
