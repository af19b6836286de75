package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/metrics/export/internaldefs"
	"github.com/MrEthical07/skillsync/session"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() skillsync.MetricsSnapshot
	AuditDropped() uint64
	Snapshot() session.Snapshot
}

// PrometheusExporter renders client metrics and the current session in the
// Prometheus text format.
type PrometheusExporter struct {
	source metricsSource
}

func NewPrometheusExporter(client *skillsync.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render. With metrics disabled it answers 204.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := p.Render()
		if body == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	})
}

// Render returns the current exposition, or "" when metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	metrics := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(metrics.Counters) == 0 && len(metrics.Histograms) == 0 && dropped == 0 {
		return ""
	}
	snap := p.source.Snapshot()

	var w textWriter
	w.Grow(4096)

	w.family(internaldefs.SessionStateName, internaldefs.SessionStateHelp, "gauge")
	for _, state := range internaldefs.SessionStates {
		w.sample(internaldefs.SessionStateName, `state="`+state.String()+`"`, internaldefs.StateValue(snap, state))
	}
	w.gauge(internaldefs.SessionGenerationName, internaldefs.SessionGenerationHelp, snap.Generation)
	w.gauge(internaldefs.SessionVersionName, internaldefs.SessionVersionHelp, snap.Version)

	for _, def := range internaldefs.CounterDefs {
		w.counter(def.Name, def.Help, metrics.Counters[def.ID])
	}
	w.counter(internaldefs.AuditDroppedName, "Audit events dropped because the dispatcher buffer was full.", dropped)

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(metrics.Histograms[def.ID]))
		w.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			w.sample(def.Name+"_bucket", `le="`+le+`"`, cumulative[i])
		}
		w.sample(def.Name+"_count", "", cumulative[len(cumulative)-1])
		// Buckets are all the client keeps; there is no running sum.
		w.sample(def.Name+"_sum", "", 0)
	}

	return w.String()
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) family(name, help, kind string) {
	w.WriteString("# HELP ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(escapeHelp(help))
	w.WriteString("\n# TYPE ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(kind)
	w.WriteByte('\n')
}

func (w *textWriter) sample(name, labels string, value uint64) {
	w.WriteString(name)
	if labels != "" {
		w.WriteByte('{')
		w.WriteString(labels)
		w.WriteByte('}')
	}
	w.WriteByte(' ')
	w.WriteString(strconv.FormatUint(value, 10))
	w.WriteByte('\n')
}

func (w *textWriter) counter(name, help string, value uint64) {
	w.family(name, help, "counter")
	w.sample(name, "", value)
}

func (w *textWriter) gauge(name, help string, value uint64) {
	w.family(name, help, "gauge")
	w.sample(name, "", value)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
