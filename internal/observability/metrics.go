package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type requestKey struct {
	path   string
	method string
	status int
}

type errorKey struct {
	path   string
	method string
	code   string
}

type latency struct {
	count int64
	sum   time.Duration
}

// Metrics keeps in-memory counters and renders them in the Prometheus text format.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[requestKey]int64
	requestTime  map[string]*latency
	errorCount   map[errorKey]int64
	authEvents   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[requestKey]int64),
		requestTime:  make(map[string]*latency),
		errorCount:   make(map[errorKey]int64),
		authEvents:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[requestKey{path: path, method: method, status: status}]++
	l, ok := m.requestTime[path]
	if !ok {
		l = &latency{}
		m.requestTime[path] = l
	}
	l.count++
	l.sum += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[errorKey{path: path, method: method, code: code}]++
}

// RecordAuthEvent counts session and code outcomes by event type.
func (m *Metrics) RecordAuthEvent(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authEvents[eventType]++
}

// AuthEventCount returns the recorded count for eventType.
func (m *Metrics) AuthEventCount(eventType string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authEvents[eventType]
}

// Render writes all counters to w in the Prometheus text exposition format.
func (m *Metrics) Render(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lines []string
	for k, v := range m.requestCount {
		lines = append(lines, fmt.Sprintf("http_requests_total{path=%s,method=%s,status=\"%d\"} %d",
			quote(k.path), quote(k.method), k.status, v))
	}
	sort.Strings(lines)
	if err := writeFamily(w, "http_requests_total", "counter", "HTTP requests by route and status.", lines); err != nil {
		return err
	}

	lines = lines[:0]
	for path, l := range m.requestTime {
		lines = append(lines,
			fmt.Sprintf("http_request_duration_seconds_sum{path=%s} %s", quote(path), strconv.FormatFloat(l.sum.Seconds(), 'f', -1, 64)),
			fmt.Sprintf("http_request_duration_seconds_count{path=%s} %d", quote(path), l.count))
	}
	sort.Strings(lines)
	if err := writeFamily(w, "http_request_duration_seconds", "summary", "HTTP request latency.", lines); err != nil {
		return err
	}

	lines = lines[:0]
	for k, v := range m.errorCount {
		lines = append(lines, fmt.Sprintf("http_errors_total{path=%s,method=%s,code=%s} %d",
			quote(k.path), quote(k.method), quote(k.code), v))
	}
	sort.Strings(lines)
	if err := writeFamily(w, "http_errors_total", "counter", "HTTP errors by domain error code.", lines); err != nil {
		return err
	}

	lines = lines[:0]
	for t, v := range m.authEvents {
		lines = append(lines, fmt.Sprintf("auth_events_total{type=%s} %d", quote(t), v))
	}
	sort.Strings(lines)
	return writeFamily(w, "auth_events_total", "counter", "Session and one-time code outcomes.", lines)
}

func writeFamily(w io.Writer, name, kind, help string, lines []string) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(v string) string {
	return `"` + labelEscaper.Replace(v) + `"`
}
