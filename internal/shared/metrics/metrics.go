package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysisStartedTotal   atomic.Uint64
	analysisCompletedTotal atomic.Uint64
	analysisFailedTotal    atomic.Uint64

	cacheHitsTotal      atomic.Uint64
	cacheMissesTotal    atomic.Uint64
	cacheSavesTotal     atomic.Uint64
	cacheEvictionsTotal atomic.Uint64

	llmRequestsTotal atomic.Uint64
	llmFailuresTotal atomic.Uint64

	storeDoctorRunsTotal atomic.Uint64
	marketAnalysesTotal  atomic.Uint64

	workerJobsReceivedTotal      atomic.Uint64
	workerJobsCompletedTotal     atomic.Uint64
	workerJobsFailedTotal        atomic.Uint64
	workerJobsUnrecoverableTotal atomic.Uint64

	panicsRecoveredTotal atomic.Uint64

	analysisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	llmDuration      = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Add(1)
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() {
	analysisCompletedTotal.Add(1)
}

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed() {
	analysisFailedTotal.Add(1)
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

func IncCacheHit()  { cacheHitsTotal.Add(1) }
func IncCacheMiss() { cacheMissesTotal.Add(1) }
func IncCacheSave() { cacheSavesTotal.Add(1) }

// AddCacheEvictions records entries removed by a sweep.
func AddCacheEvictions(n int) {
	if n > 0 {
		cacheEvictionsTotal.Add(uint64(n))
	}
}

// ObserveLLMCall records one model call and whether it failed.
func ObserveLLMCall(durationMs float64, failed bool) {
	llmRequestsTotal.Add(1)
	if failed {
		llmFailuresTotal.Add(1)
	}
	if durationMs < 0 {
		durationMs = 0
	}
	llmDuration.Observe(durationMs)
}

func IncStoreDoctorRun() { storeDoctorRunsTotal.Add(1) }
func IncMarketAnalysis() { marketAnalysesTotal.Add(1) }

func IncWorkerJobsReceived()  { workerJobsReceivedTotal.Add(1) }
func IncWorkerJobsCompleted() { workerJobsCompletedTotal.Add(1) }
func IncWorkerJobsFailed()    { workerJobsFailedTotal.Add(1) }

// IncWorkerJobsUnrecoverable counts messages deleted without processing.
func IncWorkerJobsUnrecoverable() { workerJobsUnrecoverableTotal.Add(1) }

// IncPanicRecovered counts handler panics turned into 500 responses.
func IncPanicRecovered() { panicsRecoveredTotal.Add(1) }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_started_total", "Total analyses started", analysisStartedTotal.Load())
	writeCounter(&buf, "analysis_completed_total", "Total analyses completed", analysisCompletedTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total analyses failed", analysisFailedTotal.Load())
	writeCounter(&buf, "response_cache_hits_total", "Response cache hits", cacheHitsTotal.Load())
	writeCounter(&buf, "response_cache_misses_total", "Response cache misses", cacheMissesTotal.Load())
	writeCounter(&buf, "response_cache_saves_total", "Response cache stores", cacheSavesTotal.Load())
	writeCounter(&buf, "response_cache_evictions_total", "Expired entries removed by sweeps", cacheEvictionsTotal.Load())
	writeCounter(&buf, "llm_requests_total", "Model calls issued", llmRequestsTotal.Load())
	writeCounter(&buf, "llm_failures_total", "Model calls that failed", llmFailuresTotal.Load())
	writeCounter(&buf, "store_doctor_runs_total", "Store Doctor diagnoses computed", storeDoctorRunsTotal.Load())
	writeCounter(&buf, "market_analyses_total", "Blue Ocean analyses computed", marketAnalysesTotal.Load())
	writeCounter(&buf, "worker_jobs_received_total", "Queue messages received", workerJobsReceivedTotal.Load())
	writeCounter(&buf, "worker_jobs_completed_total", "Queue messages processed and deleted", workerJobsCompletedTotal.Load())
	writeCounter(&buf, "worker_jobs_failed_total", "Queue messages left for redelivery", workerJobsFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_unrecoverable_total", "Queue messages deleted as unprocessable", workerJobsUnrecoverableTotal.Load())
	writeCounter(&buf, "http_panics_recovered_total", "Handler panics recovered", panicsRecoveredTotal.Load())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	writeHistogram(&buf, "llm_duration_ms", "Model call duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
