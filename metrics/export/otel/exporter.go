package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/metrics/export/internaldefs"
	"github.com/MrEthical07/skillsync/session"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() skillsync.MetricsSnapshot
	AuditDropped() uint64
	Snapshot() session.Snapshot
}

type observedCounter struct {
	id         skillsync.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram reports one gauge per histogram; the bucket bound is the
// "le" attribute.
type observedHistogram struct {
	id     skillsync.MetricID
	bucket metric.Int64ObservableGauge
	count  metric.Int64ObservableGauge
}

// OTelExporter publishes client counters and the current session through
// observable instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter

	state      metric.Int64ObservableGauge
	generation metric.Int64ObservableGauge
	version    metric.Int64ObservableGauge

	bucketAttrs []metric.ObserveOption
	stateAttrs  []metric.ObserveOption
}

// NewOTelExporter observes client on every collection of meter.
func NewOTelExporter(meter metric.Meter, client *skillsync.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:      source,
		counters:    make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms:  make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
		bucketAttrs: make([]metric.ObserveOption, len(internaldefs.HistogramBounds)),
		stateAttrs:  make([]metric.ObserveOption, len(internaldefs.SessionStates)),
	}
	for i, le := range internaldefs.HistogramBounds {
		e.bucketAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
	}
	for i, state := range internaldefs.SessionStates {
		e.stateAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("state", state.String())))
	}

	observables, err := e.instruments(meter)
	if err != nil {
		return nil, err
	}
	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) instruments(meter metric.Meter) ([]metric.Observable, error) {
	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+4)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		bucket, err := meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription("Cumulative count per latency bucket."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, observedHistogram{id: def.ID, bucket: bucket, count: count})
		observables = append(observables, bucket, count)
	}

	var err error
	if e.auditDropped, err = meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	if e.state, err = meter.Int64ObservableGauge(internaldefs.SessionStateName, metric.WithDescription(internaldefs.SessionStateHelp)); err != nil {
		return nil, fmt.Errorf("create session state gauge: %w", err)
	}
	if e.generation, err = meter.Int64ObservableGauge(internaldefs.SessionGenerationName, metric.WithDescription(internaldefs.SessionGenerationHelp)); err != nil {
		return nil, fmt.Errorf("create session generation gauge: %w", err)
	}
	if e.version, err = meter.Int64ObservableGauge(internaldefs.SessionVersionName, metric.WithDescription(internaldefs.SessionVersionHelp)); err != nil {
		return nil, fmt.Errorf("create session version gauge: %w", err)
	}
	return append(observables, e.auditDropped, e.state, e.generation, e.version), nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	metrics := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(metrics.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(metrics.Histograms[h.id]))
		for i, attrs := range e.bucketAttrs {
			o.ObserveInt64(h.bucket, int64(cumulative[i]), attrs)
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	snap := e.source.Snapshot()
	for i, state := range internaldefs.SessionStates {
		o.ObserveInt64(e.state, int64(internaldefs.StateValue(snap, state)), e.stateAttrs[i])
	}
	o.ObserveInt64(e.generation, int64(snap.Generation))
	o.ObserveInt64(e.version, int64(snap.Version))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
