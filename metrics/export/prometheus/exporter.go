package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/metrics/export/internaldefs"
)

// Source is what an Exporter reads. *goATM.Machine satisfies it.
type Source interface {
	MetricsSnapshot() goATM.MetricsSnapshot
	State() goATM.State
}

// Exporter renders one machine's counters, PIN latency histogram and current
// card cycle state in Prometheus text exposition format.
type Exporter struct {
	source Source
}

// New returns an exporter reading from source.
func New(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves Render on every request.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render returns the exposition text, or "" when the machine records no
// metrics.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 {
		return ""
	}

	var w textWriter
	w.b.Grow(2048)

	for _, fam := range internaldefs.CounterFamilies {
		w.header(fam.Name, fam.Help, "counter")
		for _, s := range fam.Series {
			w.sample(fam.Name, s.Labels, strconv.FormatUint(snapshot.Counters[s.ID], 10))
		}
	}

	current := e.source.State()
	w.header(internaldefs.StateName, internaldefs.StateHelp, "gauge")
	for _, s := range internaldefs.States {
		w.sample(internaldefs.StateName,
			[]internaldefs.Label{{Key: internaldefs.StateLabel, Value: s.String()}},
			strconv.FormatInt(internaldefs.StateValue(s, current), 10))
	}

	// The latency histogram only exists when latency recording is enabled.
	if raw, ok := snapshot.Histograms[internaldefs.PINLatency.ID]; ok {
		w.histogram(internaldefs.PINLatency, raw)
	}

	return w.b.String()
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) header(name, help, kind string) {
	w.b.WriteString("# HELP " + name + " " + escape(help, false) + "\n")
	w.b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (w *textWriter) sample(name string, labels []internaldefs.Label, value string) {
	w.b.WriteString(name)
	if len(labels) > 0 {
		w.b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				w.b.WriteByte(',')
			}
			w.b.WriteString(l.Key + `="` + escape(l.Value, true) + `"`)
		}
		w.b.WriteByte('}')
	}
	w.b.WriteString(" " + value + "\n")
}

// histogram writes cumulative buckets and the sample count. Snapshots hold no
// observation sum, so _sum is always 0.
func (w *textWriter) histogram(def internaldefs.HistogramDef, raw []uint64) {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))

	w.header(def.Name, def.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(def.Name+"_bucket", []internaldefs.Label{{Key: "le", Value: le}},
			strconv.FormatUint(cumulative[i], 10))
	}
	w.sample(def.Name+"_sum", nil, "0")
	w.sample(def.Name+"_count", nil, strconv.FormatUint(cumulative[len(cumulative)-1], 10))
}

func escape(s string, quote bool) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if quote {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	return s
}
