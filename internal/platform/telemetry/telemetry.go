// Package telemetry records counters, gauges, and histograms for the
// outbound FHIR client and the OAuth2 token manager, and serves them in
// Prometheus text exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds all configuration for the telemetry provider.
type Config struct {
	ServiceName    string `json:"service_name"`
	ServiceVersion string `json:"service_version"`
	Environment    string `json:"environment"`
	Enabled        *bool  `json:"enabled"` // nil = use default (true)
}

// enabled returns whether metric recording is on (defaults to true).
func (c *Config) enabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "fhir-mcp-server"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// BoolPtr is a helper to create a *bool for Config fields.
func BoolPtr(b bool) *bool {
	return &b
}

// ---------------------------------------------------------------------------
// Metric names
// ---------------------------------------------------------------------------

const (
	metricRequestDuration     = "fhir.client.request.duration"
	metricRequestsTotal       = "fhir.client.requests"
	metricInflightRequests    = "fhir.client.inflight_requests"
	metricTokenRefreshes      = "oauth.token.refreshes"
	metricTokenRefreshFailure = "oauth.token.refresh_failures"
	metricTokenExpiresAt      = "oauth.token.expires_at_seconds"
)

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// histogram is a thread-safe histogram with configurable bucket boundaries.
// Bucket counts are non-cumulative in storage; cumulative counts are computed
// at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64    // one per boundary, non-cumulative
	count        int64
	sum          uint64     // stored as math.Float64bits for atomic add
	mu           sync.Mutex // protects bucketCounts
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

// Observe records a single value.
func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			h.mu.Unlock()
			return
		}
	}
	// Value exceeds all boundaries; it lands only in the +Inf bucket at export.
	h.mu.Unlock()
}

// Count returns the total number of observations.
func (h *histogram) Count() int64 {
	return atomic.LoadInt64(&h.count)
}

// Sum returns the total sum of all observations.
func (h *histogram) Sum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&h.sum))
}

// cumulativeBuckets returns cumulative bucket counts for Prometheus export.
func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	raw := make([]int64, len(h.bucketCounts))
	copy(raw, h.bucketCounts)
	h.mu.Unlock()

	cum := make([]int64, len(raw))
	var running int64
	for i, c := range raw {
		running += c
		cum[i] = running
	}
	return cum
}

// atomicAddFloat64 performs an atomic add on a uint64 that stores a float64
// using CAS.
func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		newVal := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(addr, old, math.Float64bits(newVal)) {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Labeled histograms, keyed by (resource_type, operation, status)
// ---------------------------------------------------------------------------

type labeledHistogramStore struct {
	mu    sync.RWMutex
	items map[string]*histogram
}

func newLabeledHistogramStore() *labeledHistogramStore {
	return &labeledHistogramStore{items: make(map[string]*histogram)}
}

func (s *labeledHistogramStore) getOrCreate(key string, boundaries []float64) *histogram {
	s.mu.RLock()
	h, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return h
	}
	s.mu.Lock()
	h, ok = s.items[key]
	if !ok {
		h = newHistogram(boundaries)
		s.items[key] = h
	}
	s.mu.Unlock()
	return h
}

func (s *labeledHistogramStore) snapshot() map[string]*histogram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]*histogram, len(s.items))
	for k, v := range s.items {
		cp[k] = v
	}
	return cp
}

// LabelsKey builds the map key for a labeled metric. Exported so tests can
// construct the same key.
func LabelsKey(resourceType, operation, status string) string {
	return resourceType + "|" + operation + "|" + status
}

// ---------------------------------------------------------------------------
// Counters, keyed by (metricName, label1, label2, ...)
// ---------------------------------------------------------------------------

type counterStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func newCounterStore() *counterStore {
	return &counterStore{items: make(map[string]*int64)}
}

func (s *counterStore) inc(key string) {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		atomic.AddInt64(p, 1)
		return
	}
	s.mu.Lock()
	p, ok = s.items[key]
	if !ok {
		v := int64(1)
		s.items[key] = &v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.AddInt64(p, 1)
}

func (s *counterStore) get(key string) int64 {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

func (s *counterStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]int64, len(s.items))
	for k, p := range s.items {
		cp[k] = atomic.LoadInt64(p)
	}
	return cp
}

// ---------------------------------------------------------------------------
// Gauges, keyed by name
// ---------------------------------------------------------------------------

type gaugeStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func newGaugeStore() *gaugeStore {
	return &gaugeStore{items: make(map[string]*int64)}
}

func (s *gaugeStore) set(name string, val int64) {
	s.mu.RLock()
	p, ok := s.items[name]
	s.mu.RUnlock()
	if ok {
		atomic.StoreInt64(p, val)
		return
	}
	s.mu.Lock()
	p, ok = s.items[name]
	if !ok {
		v := val
		s.items[name] = &v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.StoreInt64(p, val)
}

func (s *gaugeStore) add(name string, delta int64) {
	s.mu.RLock()
	p, ok := s.items[name]
	s.mu.RUnlock()
	if ok {
		atomic.AddInt64(p, delta)
		return
	}
	s.mu.Lock()
	p, ok = s.items[name]
	if !ok {
		v := delta
		s.items[name] = &v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.AddInt64(p, delta)
}

func (s *gaugeStore) get(name string) int64 {
	s.mu.RLock()
	p, ok := s.items[name]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// defaultDurationBuckets are the histogram bucket boundaries (in seconds)
// used for outbound request duration.
var defaultDurationBuckets = []float64{
	0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0,
}

// Provider manages all observability state for the process.
type Provider struct {
	cfg Config

	// Histograms
	histograms        map[string]*histogram
	labeledHistograms map[string]*labeledHistogramStore
	histMu            sync.RWMutex

	// Counters
	counters *counterStore

	// Gauges
	gauges *gaugeStore
}

// NewProvider creates and initialises the telemetry provider.
func NewProvider(cfg Config) *Provider {
	cfg.applyDefaults()

	return &Provider{
		cfg:               cfg,
		histograms:        make(map[string]*histogram),
		labeledHistograms: make(map[string]*labeledHistogramStore),
		counters:          newCounterStore(),
		gauges:            newGaugeStore(),
	}
}

// Resource returns the provider's identifying attributes.
func (p *Provider) Resource() map[string]string {
	return map[string]string{
		"service.name":           p.cfg.ServiceName,
		"service.version":        p.cfg.ServiceVersion,
		"deployment.environment": p.cfg.Environment,
	}
}

// ---------------------------------------------------------------------------
// Outbound FHIR client instrumentation
// ---------------------------------------------------------------------------

// RequestStarted increments the in-flight request gauge.
func (p *Provider) RequestStarted() {
	if !p.cfg.enabled() {
		return
	}
	p.gauges.add(metricInflightRequests, 1)
}

// RequestFinished records the outcome of one outbound FHIR request and
// decrements the in-flight gauge. status is the HTTP status code, or 0 for
// transport-level failures.
func (p *Provider) RequestFinished(resourceType, operation string, status int, duration time.Duration) {
	if !p.cfg.enabled() {
		return
	}
	p.gauges.add(metricInflightRequests, -1)

	statusStr := fmt.Sprintf("%d", status)
	p.counters.inc(metricRequestsTotal + "|" + LabelsKey(resourceType, operation, statusStr))

	secs := duration.Seconds()
	p.getOrCreateHistogram(metricRequestDuration, defaultDurationBuckets).Observe(secs)

	store := p.getOrCreateLabeledStore(metricRequestDuration)
	store.getOrCreate(LabelsKey(resourceType, operation, statusStr), defaultDurationBuckets).Observe(secs)
}

// ---------------------------------------------------------------------------
// Token manager instrumentation
// ---------------------------------------------------------------------------

// TokenRefreshSucceeded records a successful token exchange and the new
// expiry instant.
func (p *Provider) TokenRefreshSucceeded(expiresAt time.Time) {
	if !p.cfg.enabled() {
		return
	}
	p.counters.inc(metricTokenRefreshes)
	p.gauges.set(metricTokenExpiresAt, expiresAt.Unix())
}

// TokenRefreshFailed records a failed token exchange. The expiry gauge is
// left untouched: a failed exchange does not change the cached token.
func (p *Provider) TokenRefreshFailed() {
	if !p.cfg.enabled() {
		return
	}
	p.counters.inc(metricTokenRefreshFailure)
}

// ---------------------------------------------------------------------------
// Accessors (for tests and introspection)
// ---------------------------------------------------------------------------

// GetCounter returns the current value of a counter with the given name and
// label values.
func (p *Provider) GetCounter(name string, labels ...string) int64 {
	key := name
	if len(labels) > 0 {
		key = name + "|" + strings.Join(labels, "|")
	}
	return p.counters.get(key)
}

// GetGauge returns the current value of the named gauge.
func (p *Provider) GetGauge(name string) int64 {
	return p.gauges.get(name)
}

// GetHistogram returns the named global histogram, or nil if it does not exist.
func (p *Provider) GetHistogram(name string) *histogram {
	p.histMu.RLock()
	defer p.histMu.RUnlock()
	return p.histograms[name]
}

// GetLabeledHistogram returns a specific labeled histogram, or nil.
func (p *Provider) GetLabeledHistogram(name, key string) *histogram {
	p.histMu.RLock()
	s, ok := p.labeledHistograms[name]
	p.histMu.RUnlock()
	if !ok {
		return nil
	}
	s.mu.RLock()
	h := s.items[key]
	s.mu.RUnlock()
	return h
}

func (p *Provider) getOrCreateHistogram(name string, boundaries []float64) *histogram {
	p.histMu.RLock()
	h, ok := p.histograms[name]
	p.histMu.RUnlock()
	if ok {
		return h
	}
	p.histMu.Lock()
	h, ok = p.histograms[name]
	if !ok {
		h = newHistogram(boundaries)
		p.histograms[name] = h
	}
	p.histMu.Unlock()
	return h
}

func (p *Provider) getOrCreateLabeledStore(name string) *labeledHistogramStore {
	p.histMu.RLock()
	s, ok := p.labeledHistograms[name]
	p.histMu.RUnlock()
	if ok {
		return s
	}
	p.histMu.Lock()
	s, ok = p.labeledHistograms[name]
	if !ok {
		s = newLabeledHistogramStore()
		p.labeledHistograms[name] = s
	}
	p.histMu.Unlock()
	return s
}

// ---------------------------------------------------------------------------
// PrometheusHandler
// ---------------------------------------------------------------------------

// PrometheusHandler returns an Echo handler that serves metrics in Prometheus
// text exposition format at /metrics.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		p.histMu.RLock()
		durationHist := p.histograms[metricRequestDuration]
		durationStore := p.labeledHistograms[metricRequestDuration]
		p.histMu.RUnlock()

		// --- fhir_client_request_duration_seconds (histogram) ---
		writeHistogramMetric(&b, "fhir_client_request_duration_seconds",
			"Duration of outbound FHIR requests in seconds.",
			durationHist, durationStore, defaultDurationBuckets)

		// --- fhir_client_inflight_requests (gauge) ---
		b.WriteString("# HELP fhir_client_inflight_requests Number of in-flight outbound FHIR requests.\n")
		b.WriteString("# TYPE fhir_client_inflight_requests gauge\n")
		fmt.Fprintf(&b, "fhir_client_inflight_requests %d\n", p.gauges.get(metricInflightRequests))
		b.WriteByte('\n')

		// --- fhir_client_requests_total (counter) ---
		counters := p.counters.snapshot()
		b.WriteString("# HELP fhir_client_requests_total Total outbound FHIR requests by resource type, operation, and status.\n")
		b.WriteString("# TYPE fhir_client_requests_total counter\n")
		for key, val := range counters {
			parts := strings.SplitN(key, "|", 4)
			if len(parts) == 4 && parts[0] == metricRequestsTotal {
				fmt.Fprintf(&b, "fhir_client_requests_total{resource_type=%q,operation=%q,status=%q} %d\n",
					parts[1], parts[2], parts[3], val)
			}
		}
		b.WriteByte('\n')

		// --- token counters ---
		tokenCounters := []struct {
			promName string
			key      string
			help     string
		}{
			{"oauth_token_refreshes_total", metricTokenRefreshes, "Total successful OAuth2 token exchanges."},
			{"oauth_token_refresh_failures_total", metricTokenRefreshFailure, "Total failed OAuth2 token exchanges."},
		}
		for _, tc := range tokenCounters {
			fmt.Fprintf(&b, "# HELP %s %s\n", tc.promName, tc.help)
			fmt.Fprintf(&b, "# TYPE %s counter\n", tc.promName)
			fmt.Fprintf(&b, "%s %d\n", tc.promName, counters[tc.key])
			b.WriteByte('\n')
		}

		// --- oauth_token_expires_at_seconds (gauge) ---
		b.WriteString("# HELP oauth_token_expires_at_seconds Unix timestamp of the cached token expiry, 0 when no token is cached.\n")
		b.WriteString("# TYPE oauth_token_expires_at_seconds gauge\n")
		fmt.Fprintf(&b, "oauth_token_expires_at_seconds %d\n", p.gauges.get(metricTokenExpiresAt))
		b.WriteByte('\n')

		return c.String(http.StatusOK, b.String())
	}
}

// ---------------------------------------------------------------------------
// Prometheus format helpers
// ---------------------------------------------------------------------------

func writeHistogramMetric(b *strings.Builder, name, help string,
	global *histogram, labeled *labeledHistogramStore, boundaries []float64) {

	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s histogram\n", name)

	if labeled != nil {
		snap := labeled.snapshot()
		for key, h := range snap {
			parts := strings.SplitN(key, "|", 3)
			if len(parts) != 3 {
				continue
			}
			labels := fmt.Sprintf("resource_type=%q,operation=%q,status=%q", parts[0], parts[1], parts[2])
			writeSingleHistogram(b, name, labels, h, boundaries)
		}
	} else if global != nil {
		writeSingleHistogram(b, name, "", global, boundaries)
	}
	b.WriteByte('\n')
}

func writeSingleHistogram(b *strings.Builder, name, labels string,
	h *histogram, boundaries []float64) {

	cum := h.cumulativeBuckets()
	total := h.Count()

	labelsPrefix := ""
	labelsSuffix := ""
	if labels != "" {
		labelsPrefix = labels + ","
		labelsSuffix = "{" + labels + "}"
	}

	for i, boundary := range boundaries {
		if labels != "" {
			fmt.Fprintf(b, "%s_bucket{%sle=\"%g\"} %d\n", name, labelsPrefix, boundary, cum[i])
		} else {
			fmt.Fprintf(b, "%s_bucket{le=\"%g\"} %d\n", name, boundary, cum[i])
		}
	}

	// +Inf bucket.
	if labels != "" {
		fmt.Fprintf(b, "%s_bucket{%sle=\"+Inf\"} %d\n", name, labelsPrefix, total)
	} else {
		fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", name, total)
	}

	fmt.Fprintf(b, "%s_sum%s %g\n", name, labelsSuffix, h.Sum())
	fmt.Fprintf(b, "%s_count%s %d\n", name, labelsSuffix, total)
}
