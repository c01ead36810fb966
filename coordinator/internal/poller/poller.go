package poller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/picarlo/picarlo/coordinator/internal/runstore"
	"github.com/picarlo/picarlo/pkg/wire"
)

const scrapeTimeout = 5 * time.Second

// Worker metric names, as exposed by the worker's progress package.
const (
	metricSamples = "picarlo_samples_total"
	metricInside  = "picarlo_inside_total"
)

// Poller periodically scrapes the progress metrics of every worker that has
// claimed a share of an active run, and feeds the observed counts into the
// run store so API and WebSocket clients see live progress.
//
// A failed scrape is logged and skipped — progress is advisory; the final
// report is the only thing correctness depends on.
type Poller struct {
	store    *runstore.Store
	interval time.Duration
	client   *http.Client
}

// New creates a Poller that scrapes every interval.
func New(st *runstore.Store, interval time.Duration) *Poller {
	return &Poller{
		store:    st,
		interval: interval,
		client:   &http.Client{Timeout: scrapeTimeout},
	}
}

// Run starts the scrape loop. It blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce scrapes every current target.
func (p *Poller) pollOnce(ctx context.Context) {
	for _, target := range p.store.Targets() {
		done, inside, err := p.scrape(ctx, target.Addr)
		if err != nil {
			slog.Debug("poller: scrape failed",
				"run", target.RunID, "worker", target.WorkerIndex,
				"addr", target.Addr, "err", err)
			continue
		}
		p.store.SetProgress(target.RunID, wire.WorkerProgress{
			WorkerIndex: target.WorkerIndex,
			Done:        done,
			Inside:      inside,
		})
	}
}

// scrape fetches addr's /metrics endpoint and extracts the progress gauges.
func (p *Poller) scrape(ctx context.Context, addr string) (done, inside int64, err error) {
	url := "http://" + addr + "/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	mfs, err := parseMetrics(resp.Body)
	if err != nil {
		return 0, 0, err
	}
	return gaugeValue(mfs[metricSamples]), gaugeValue(mfs[metricInside]), nil
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// gaugeValue returns the first gauge, counter, or untyped value in the
// family, or 0 if mf is nil.
func gaugeValue(mf *dto.MetricFamily) int64 {
	if mf == nil || len(mf.Metric) == 0 {
		return 0
	}
	m := mf.Metric[0]
	switch {
	case m.Gauge != nil:
		return int64(m.Gauge.GetValue())
	case m.Counter != nil:
		return int64(m.Counter.GetValue())
	case m.Untyped != nil:
		return int64(m.Untyped.GetValue())
	}
	return 0
}
