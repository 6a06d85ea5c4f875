// Metrics collection for the encoder host.
//
// Counters are monotonically increasing, gauges move both ways. A
// Registry renders everything in Prometheus text format for scraping
// via the telemetry server's /metrics route.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing value.
type Counter struct {
	name  string
	help  string
	value atomic.Uint64
}

// NewCounter creates a counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add increments the counter by delta.
func (c *Counter) Add(delta uint64) {
	c.value.Add(delta)
}

// Get returns the current value.
func (c *Counter) Get() uint64 {
	return c.value.Load()
}

func (c *Counter) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(sb, "# TYPE %s counter\n", c.name)
	fmt.Fprintf(sb, "%s %d\n", c.name, c.Get())
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// NewGauge creates a gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

// Set stores the current value.
func (g *Gauge) Set(value float64) {
	g.bits.Store(math.Float64bits(value))
}

// Get returns the current value.
func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

func (g *Gauge) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(sb, "# TYPE %s gauge\n", g.name)
	fmt.Fprintf(sb, "%s %g\n", g.name, g.Get())
}

type metric interface {
	write(sb *strings.Builder)
}

// Registry holds named metrics and renders them for scraping.
type Registry struct {
	mu      sync.RWMutex
	names   []string
	metrics map[string]metric
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]metric)}
}

// Counter registers and returns a counter. Registering the same name
// twice returns the existing counter.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		return m.(*Counter)
	}
	c := NewCounter(name, help)
	r.register(name, c)
	return c
}

// Gauge registers and returns a gauge. Registering the same name
// twice returns the existing gauge.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		return m.(*Gauge)
	}
	g := NewGauge(name, help)
	r.register(name, g)
	return g
}

func (r *Registry) register(name string, m metric) {
	r.metrics[name] = m
	r.names = append(r.names, name)
	sort.Strings(r.names)
}

// Render returns all metrics in Prometheus text format.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, name := range r.names {
		r.metrics[name].write(&sb)
	}
	return sb.String()
}

// Handler returns an http.Handler serving the registry in Prometheus
// text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, r.Render())
	})
}

// EncoderMetrics holds the metrics the encoder host records.
type EncoderMetrics struct {
	Pulses        *Counter
	PulsesCW      *Counter
	PulsesCCW     *Counter
	DecodeErrors  *Counter
	RateErrors    *Counter
	AngleDegrees  *Gauge
	DegreesPerSec *Gauge
	WSClients     *Gauge
}

// NewEncoderMetrics registers the encoder host metrics on registry.
func NewEncoderMetrics(registry *Registry) *EncoderMetrics {
	return &EncoderMetrics{
		Pulses:        registry.Counter("es38_pulses_total", "Decoded quadrature transitions"),
		PulsesCW:      registry.Counter("es38_pulses_cw_total", "Clockwise detents"),
		PulsesCCW:     registry.Counter("es38_pulses_ccw_total", "Counter-clockwise detents"),
		DecodeErrors:  registry.Counter("es38_decode_errors_total", "Direction source read failures"),
		RateErrors:    registry.Counter("es38_rate_errors_total", "Velocity windows rejected at read time"),
		AngleDegrees:  registry.Gauge("es38_angle_degrees", "Current shaft angle in degrees"),
		DegreesPerSec: registry.Gauge("es38_velocity_degrees_per_sec", "Most recent angular rate"),
		WSClients:     registry.Gauge("es38_ws_clients", "Connected telemetry stream clients"),
	}
}
