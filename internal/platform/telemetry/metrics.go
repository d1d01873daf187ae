// Package telemetry keeps in-process HTTP and upstream fetch metrics and
// serves them in the Prometheus text exposition format.
package telemetry

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// Request duration buckets, in seconds. Upstream calls time out at 15s by
// default so the top bucket sits above that.
var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20,
}

// histogram is a thread-safe histogram. Bucket counts are stored
// non-cumulative and summed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 {
	return atomic.LoadInt64(&h.count)
}

func (h *histogram) Sum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&h.sum))
}

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	raw := make([]int64, len(h.bucketCounts))
	copy(raw, h.bucketCounts)
	h.mu.Unlock()

	var running int64
	for i, c := range raw {
		running += c
		raw[i] = running
	}
	return raw
}

func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(addr, old, math.Float64bits(next)) {
			return
		}
	}
}

// labelsKey joins label values into a map key.
func labelsKey(values ...string) string {
	return strings.Join(values, "|")
}

// Metrics collects request and fetch metrics for one process.
type Metrics struct {
	service string
	version string

	mu        sync.RWMutex
	durations map[string]*histogram // method|route|status
	fetches   map[string]*int64     // kind|source

	active int64
}

func NewMetrics(service, version string) *Metrics {
	return &Metrics{
		service:   service,
		version:   version,
		durations: make(map[string]*histogram),
		fetches:   make(map[string]*int64),
	}
}

func (m *Metrics) durationFor(key string) *histogram {
	m.mu.RLock()
	h, ok := m.durations[key]
	m.mu.RUnlock()
	if ok {
		return h
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.durations[key]; !ok {
		h = newHistogram(durationBuckets)
		m.durations[key] = h
	}
	return h
}

// Record counts one upstream fetch by kind and source. Its signature matches
// the recorder hook of the facility and summary services.
func (m *Metrics) Record(_ context.Context, kind string, source statsapi.Source, _ string, _ interface{}) {
	key := labelsKey(kind, string(source))
	m.mu.RLock()
	p, ok := m.fetches[key]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		if p, ok = m.fetches[key]; !ok {
			p = new(int64)
			m.fetches[key] = p
		}
		m.mu.Unlock()
	}
	atomic.AddInt64(p, 1)
}

// Fetches returns how many fetches of kind were answered from source.
func (m *Metrics) Fetches(kind string, source statsapi.Source) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.fetches[labelsKey(kind, string(source))]; ok {
		return atomic.LoadInt64(p)
	}
	return 0
}

// Requests returns the number of observed requests for method, route and status.
func (m *Metrics) Requests(method, route string, status int) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.durations[labelsKey(method, route, strconv.Itoa(status))]; ok {
		return h.Count()
	}
	return 0
}

// Middleware records request latency by route pattern and status code.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.active, 1)
			start := time.Now()

			err := next(c)

			atomic.AddInt64(&m.active, -1)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.durationFor(labelsKey(c.Request().Method, route, strconv.Itoa(status))).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves every metric in Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder
		m.write(&b)
		return c.Blob(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
	}
}

func (m *Metrics) write(b *strings.Builder) {
	b.WriteString("# HELP build_info Service name and version.\n")
	b.WriteString("# TYPE build_info gauge\n")
	fmt.Fprintf(b, "build_info{service=%q,version=%q} 1\n\n", m.service, m.version)

	b.WriteString("# HELP http_server_active_requests Number of requests in flight.\n")
	b.WriteString("# TYPE http_server_active_requests gauge\n")
	fmt.Fprintf(b, "http_server_active_requests %d\n\n", atomic.LoadInt64(&m.active))

	m.mu.RLock()
	durations := make(map[string]*histogram, len(m.durations))
	for k, h := range m.durations {
		durations[k] = h
	}
	fetches := make(map[string]int64, len(m.fetches))
	for k, p := range m.fetches {
		fetches[k] = atomic.LoadInt64(p)
	}
	m.mu.RUnlock()

	const reqName = "http_server_request_duration_seconds"
	fmt.Fprintf(b, "# HELP %s Duration of HTTP requests in seconds.\n", reqName)
	fmt.Fprintf(b, "# TYPE %s histogram\n", reqName)
	for _, key := range sortedKeys(durations) {
		parts := strings.SplitN(key, "|", 3)
		labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
		writeHistogram(b, reqName, labels, durations[key])
	}
	b.WriteByte('\n')

	b.WriteString("# HELP statsapi_fetches_total Upstream fetches by kind and data source.\n")
	b.WriteString("# TYPE statsapi_fetches_total counter\n")
	for _, key := range sortedKeys(fetches) {
		parts := strings.SplitN(key, "|", 2)
		fmt.Fprintf(b, "statsapi_fetches_total{kind=%q,source=%q} %d\n", parts[0], parts[1], fetches[key])
	}
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, le := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, le, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
