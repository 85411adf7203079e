package otel

import (
	"context"
	"errors"
	"fmt"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned by New without a meter.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned by New without a source.
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what an Exporter reads. *goATM.Machine satisfies it.
type Source interface {
	MetricsSnapshot() goATM.MetricsSnapshot
	State() goATM.State
}

type series struct {
	id   goATM.MetricID
	opts []metric.ObserveOption
}

type family struct {
	counter metric.Int64ObservableCounter
	series  []series
}

// Exporter observes one machine through instruments on a caller supplied
// meter.
type Exporter struct {
	source       Source
	registration metric.Registration

	families  []family
	state     metric.Int64ObservableGauge
	stateOpts []metric.ObserveOption

	buckets    metric.Int64ObservableGauge
	bucketOpts []metric.ObserveOption
	count      metric.Int64ObservableCounter
}

func attrs(labels []internaldefs.Label) []metric.ObserveOption {
	if len(labels) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for _, l := range labels {
		kvs = append(kvs, attribute.String(l.Key, l.Value))
	}
	return []metric.ObserveOption{metric.WithAttributeSet(attribute.NewSet(kvs...))}
}

// New creates the instruments and registers one callback that reads a single
// snapshot per collection.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterFamilies {
		c, err := meter.Int64ObservableCounter(def.OTelName, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.OTelName, err)
		}
		f := family{counter: c}
		for _, s := range def.Series {
			f.series = append(f.series, series{id: s.ID, opts: attrs(s.Labels)})
		}
		e.families = append(e.families, f)
		observables = append(observables, c)
	}

	var err error
	e.state, err = meter.Int64ObservableGauge(internaldefs.StateOTelName, metric.WithDescription(internaldefs.StateHelp))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", internaldefs.StateOTelName, err)
	}
	for _, s := range internaldefs.States {
		e.stateOpts = append(e.stateOpts, attrs([]internaldefs.Label{{Key: internaldefs.StateLabel, Value: s.String()}})...)
	}

	def := internaldefs.PINLatency
	e.buckets, err = meter.Int64ObservableGauge(def.OTelName+".bucket",
		metric.WithDescription("Cumulative PIN verifications at or below the le bound, in seconds."))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s.bucket: %w", def.OTelName, err)
	}
	for _, le := range internaldefs.HistogramBounds {
		e.bucketOpts = append(e.bucketOpts, attrs([]internaldefs.Label{{Key: "le", Value: le}})...)
	}
	e.count, err = meter.Int64ObservableCounter(def.OTelName+".count", metric.WithDescription(def.Help))
	if err != nil {
		return nil, fmt.Errorf("create counter %s.count: %w", def.OTelName, err)
	}
	observables = append(observables, e.state, e.buckets, e.count)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

// observe reports nothing while the machine records no metrics.
func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 {
		return nil
	}

	for _, f := range e.families {
		for _, s := range f.series {
			o.ObserveInt64(f.counter, int64(snapshot.Counters[s.id]), s.opts...)
		}
	}

	current := e.source.State()
	for i, s := range internaldefs.States {
		o.ObserveInt64(e.state, internaldefs.StateValue(s, current), e.stateOpts[i])
	}

	raw, ok := snapshot.Histograms[internaldefs.PINLatency.ID]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, v := range cumulative {
		o.ObserveInt64(e.buckets, int64(v), e.bucketOpts[i])
	}
	o.ObserveInt64(e.count, int64(cumulative[len(cumulative)-1]))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
