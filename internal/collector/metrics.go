package collector

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once
	mc   *MetricsCollector
)

type RefreshStatus struct {
	Site   string    `json:"site"`
	Status string    `json:"status"`
	At     time.Time `json:"at,omitempty"`
}

// MetricsCollector exposes engine and refresh counters. Every method is a
// no-op on a nil collector, so callers need not check.
type MetricsCollector struct {
	refreshStatus map[string]*RefreshStatus
	statusMu      sync.RWMutex

	passes           *prometheus.CounterVec
	passDuration     *prometheus.GaugeVec
	entriesProcessed *prometheus.CounterVec
	entriesRendered  *prometheus.CounterVec
	entriesSkipped   *prometheus.CounterVec
	toggles          *prometheus.CounterVec

	refreshCount        *prometheus.CounterVec
	refreshSuccessCount *prometheus.CounterVec
	refreshFailedCount  *prometheus.CounterVec
	refreshDuration     *prometheus.GaugeVec
	listsSaved          *prometheus.CounterVec
	listEntriesSaved    *prometheus.CounterVec
	listDownloadErrors  *prometheus.CounterVec
}

func GetMetricsCollector() (*MetricsCollector, error) {
	if mc == nil {
		return nil, fmt.Errorf("MetricsCollector not initialized")
	}
	return mc, nil
}

// NewMetricsCollector registers the metrics once per process.
func NewMetricsCollector(siteNames []string) *MetricsCollector {
	once.Do(func() {
		_mc := &MetricsCollector{
			refreshStatus: make(map[string]*RefreshStatus),

			passes: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_processing_passes_total",
				Help: "Total number of processing passes over a page, by site.",
			}, []string{"site"}),

			passDuration: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "entrylist_processing_pass_duration_seconds",
				Help: "Duration of the last processing pass in seconds.",
			}, []string{"site"}),

			entriesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_entries_processed_total",
				Help: "Total number of entries marked processed, by site.",
			}, []string{"site"}),

			entriesRendered: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_entries_rendered_total",
				Help: "Total number of entries given a visual treatment, by site and processing type.",
			}, []string{"site", "type"}),

			entriesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_entries_skipped_total",
				Help: "Total number of entries skipped during a pass, by site and reason.",
			}, []string{"site", "reason"}),

			toggles: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_toggles_total",
				Help: "Total number of list toggles, by site and action.",
			}, []string{"site", "action"}),

			refreshCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_total",
				Help: "Total number of list refreshes initiated, by site.",
			}, []string{"site"}),

			refreshSuccessCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_success_total",
				Help: "Total number of list refreshes where every list downloaded.",
			}, []string{"site"}),

			refreshFailedCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_failed_total",
				Help: "Total number of list refreshes with at least one failed list.",
			}, []string{"site"}),

			refreshDuration: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "entrylist_refresh_duration_seconds",
				Help: "Duration of the last list refresh in seconds.",
			}, []string{"site"}),

			listsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_lists_saved_total",
				Help: "Total number of lists saved by refreshes.",
			}, []string{"site"}),

			listEntriesSaved: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_entries_saved_total",
				Help: "Total number of list entries saved by refreshes.",
			}, []string{"site"}),

			listDownloadErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entrylist_refresh_download_errors_total",
				Help: "Total number of list downloads that failed.",
			}, []string{"site"}),
		}

		for _, name := range siteNames {
			_mc.refreshStatus[name] = &RefreshStatus{Site: name, Status: "idle"}
		}

		mc = _mc
	})

	return mc
}

func (mc *MetricsCollector) ObservePass(site string, d time.Duration) {
	if mc == nil {
		return
	}
	mc.passes.With(prometheus.Labels{"site": site}).Inc()
	mc.passDuration.With(prometheus.Labels{"site": site}).Set(d.Seconds())
}

func (mc *MetricsCollector) IncrementProcessed(site string) {
	if mc == nil {
		return
	}
	mc.entriesProcessed.With(prometheus.Labels{"site": site}).Inc()
}

func (mc *MetricsCollector) IncrementRendered(site, processingType string) {
	if mc == nil {
		return
	}
	mc.entriesRendered.With(prometheus.Labels{"site": site, "type": processingType}).Inc()
}

func (mc *MetricsCollector) IncrementSkipped(site, reason string) {
	if mc == nil {
		return
	}
	mc.entriesSkipped.With(prometheus.Labels{"site": site, "reason": reason}).Inc()
}

func (mc *MetricsCollector) IncrementToggle(site, action string) {
	if mc == nil {
		return
	}
	mc.toggles.With(prometheus.Labels{"site": site, "action": action}).Inc()
}

func (mc *MetricsCollector) setStatus(site, status string) {
	mc.statusMu.Lock()
	defer mc.statusMu.Unlock()
	mc.refreshStatus[site] = &RefreshStatus{Site: site, Status: status, At: time.Now()}
}

func (mc *MetricsCollector) SetRefreshRunning(site string) {
	if mc == nil {
		return
	}
	mc.setStatus(site, "running")
	mc.refreshCount.With(prometheus.Labels{"site": site}).Inc()
	mc.refreshDuration.With(prometheus.Labels{"site": site}).Set(0)
}

func (mc *MetricsCollector) SetRefreshSuccess(site string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.setStatus(site, "success")
	mc.refreshSuccessCount.With(prometheus.Labels{"site": site}).Inc()
	mc.refreshDuration.With(prometheus.Labels{"site": site}).Set(duration.Seconds())
}

func (mc *MetricsCollector) SetRefreshFailed(site string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.setStatus(site, "failed")
	mc.refreshFailedCount.With(prometheus.Labels{"site": site}).Inc()
	mc.refreshDuration.With(prometheus.Labels{"site": site}).Set(duration.Seconds())
}

func (mc *MetricsCollector) IncrementListSaved(site string, entries int) {
	if mc == nil {
		return
	}
	mc.listsSaved.With(prometheus.Labels{"site": site}).Inc()
	mc.listEntriesSaved.With(prometheus.Labels{"site": site}).Add(float64(entries))
}

func (mc *MetricsCollector) IncrementDownloadErrors(site string) {
	if mc == nil {
		return
	}
	mc.listDownloadErrors.With(prometheus.Labels{"site": site}).Inc()
}

// RefreshStatuses returns a copy of the last refresh status per site.
func (mc *MetricsCollector) RefreshStatuses() map[string]RefreshStatus {
	if mc == nil {
		return nil
	}
	mc.statusMu.RLock()
	defer mc.statusMu.RUnlock()

	out := make(map[string]RefreshStatus, len(mc.refreshStatus))
	for name, st := range mc.refreshStatus {
		out[name] = *st
	}
	return out
}
