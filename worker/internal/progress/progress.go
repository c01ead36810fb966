package progress

import (
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names exposed by the worker and scraped by the coordinator's poller.
const (
	MetricSamples = "picarlo_samples_total"
	MetricInside  = "picarlo_inside_total"
	MetricShare   = "picarlo_share_samples"
)

// Tracker holds the worker's live sampling counters and serves them in
// Prometheus text exposition format on /metrics.
//
// The sampling loop calls Update from its progress callback; the HTTP
// handler reads the counters concurrently, so all access is atomic.
type Tracker struct {
	done   atomic.Int64
	inside atomic.Int64
	share  atomic.Int64
}

// NewTracker returns a Tracker for a share of the given size.
func NewTracker(shareSamples int64) *Tracker {
	t := &Tracker{}
	t.share.Store(shareSamples)
	return t
}

// SetShare records the share size once it is known (after the claim).
func (t *Tracker) SetShare(n int64) { t.share.Store(n) }

// Update records the current (done, inside) counts.
func (t *Tracker) Update(done, inside int64) {
	t.done.Store(done)
	t.inside.Store(inside)
}

// Done returns the number of samples drawn so far.
func (t *Tracker) Done() int64 { return t.done.Load() }

// Inside returns the inside count so far.
func (t *Tracker) Inside() int64 { return t.inside.Load() }

// ServeHTTP writes the three metric families as a text exposition.
func (t *Tracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range t.families() {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

func (t *Tracker) families() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		gaugeFamily(MetricSamples, "Samples drawn so far.", float64(t.done.Load())),
		gaugeFamily(MetricInside, "Samples inside the quarter circle so far.", float64(t.inside.Load())),
		gaugeFamily(MetricShare, "Total samples assigned to this worker.", float64(t.share.Load())),
	}
}

// gaugeFamily builds a single-gauge MetricFamily.
func gaugeFamily(name, help string, value float64) *dto.MetricFamily {
	typ := dto.MetricType_GAUGE
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   &typ,
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: &value}}},
	}
}
