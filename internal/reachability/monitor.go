// Package reachability answers "is the network usable right now" with a
// debounced probe.
package reachability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckInterval is the debounce window between two real probes
const DefaultCheckInterval = 5 * time.Second

// Prober performs one real reachability probe. Implementations return false
// on any failure.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) bool

// Probe calls f(ctx)
func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// Monitor caches the last probe result for CheckInterval so that callers can
// ask as often as they like while the network is probed at most once per window.
type Monitor struct {
	prober   Prober
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	// probeMu serializes probes; mu guards the cached result only, so that
	// readers never wait on a slow probe.
	probeMu sync.Mutex

	mu         sync.RWMutex
	checked    bool
	lastCheck  time.Time
	lastStatus bool
}

// Option configures a Monitor
type Option func(*Monitor)

// WithCheckInterval overrides the debounce window
func WithCheckInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger used for status change messages
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a Monitor around prober
func NewMonitor(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   prober,
		interval: DefaultCheckInterval,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckReachable returns the cached status while it is younger than the
// check interval, and probes otherwise.
func (m *Monitor) CheckReachable(ctx context.Context) bool {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	m.mu.RLock()
	fresh := m.checked && m.now().Sub(m.lastCheck) < m.interval
	status := m.lastStatus
	m.mu.RUnlock()
	if fresh {
		return status
	}
	return m.probe(ctx)
}

// ForceCheck always probes and replaces the cached status
func (m *Monitor) ForceCheck(ctx context.Context) bool {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()
	return m.probe(ctx)
}

// LastStatus returns the cached status and when it was probed. ok is false
// before the first probe.
func (m *Monitor) LastStatus() (reachable bool, at time.Time, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStatus, m.lastCheck, m.checked
}

// probe must be called with probeMu held
func (m *Monitor) probe(ctx context.Context) bool {
	status := m.prober.Probe(ctx)

	m.mu.Lock()
	first := !m.checked
	changed := first || status != m.lastStatus
	m.checked = true
	m.lastStatus = status
	m.lastCheck = m.now()
	m.mu.Unlock()

	if changed {
		m.logger.Info("network reachability changed",
			zap.Bool("reachable", status),
			zap.Bool("first_check", first),
		)
	}
	return status
}

// HTTPProber treats any HTTP response from URL as proof of connectivity
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// NewHTTPProber creates an HTTPProber with its own short-timeout client
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Probe issues HEAD URL. Request construction and transport errors count as unreachable.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
