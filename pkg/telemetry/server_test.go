package telemetry

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seanybaggins/es38/pkg/metrics"
)

// syncBuffer is a lock-guarded bytes.Buffer for handler output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// stubSampler serves a fixed reading.
type stubSampler struct {
	reading Reading
}

func (s *stubSampler) Snapshot() Reading {
	return s.reading
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sampler := &stubSampler{reading: Reading{
		TimestampMS:   1001,
		Counts:        1200,
		CountsPerRev:  2400,
		Degrees:       180.0,
		DegreesPerSec: 180.0,
		RateValid:     true,
	}}
	registry := metrics.NewRegistry()
	registry.Counter("es38_pulses_total", "pulses").Add(7)

	srv := New(Config{
		Sampler:      sampler,
		ReportPeriod: 20 * time.Millisecond,
		Registry:     registry,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s returned %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s response: %v", url, err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var reading Reading
	getJSON(t, ts.URL+"/api/v1/status", &reading)

	if reading.Counts != 1200 {
		t.Errorf("counts should be 1200, got %d", reading.Counts)
	}
	if reading.Degrees != 180.0 {
		t.Errorf("degrees should be 180, got %f", reading.Degrees)
	}
	if !reading.RateValid {
		t.Error("rate should be valid")
	}
}

func TestInfoEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var info map[string]any
	getJSON(t, ts.URL+"/api/v1/info", &info)

	if info["service"] != "es38" {
		t.Errorf("service should be es38, got %v", info["service"])
	}
	if info["report_period_ms"] != float64(20) {
		t.Errorf("report_period_ms should be 20, got %v", info["report_period_ms"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), "es38_pulses_total 7") {
		t.Errorf("missing pulses counter:\n%s", body)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST should be rejected with 405, got %d", resp.StatusCode)
	}
}

func TestAccessLog(t *testing.T) {
	var buf syncBuffer
	srv := New(Config{
		Sampler:   &stubSampler{},
		AccessLog: &buf,
	})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	if !strings.Contains(buf.String(), "GET /api/v1/status") {
		t.Errorf("access log should record the request, got: %s", buf.String())
	}
}

func TestWebSocketStream(t *testing.T) {
	srv, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reading Reading
	if err := conn.ReadJSON(&reading); err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if reading.Counts != 1200 {
		t.Errorf("streamed counts should be 1200, got %d", reading.Counts)
	}

	if srv.ClientCount() != 1 {
		t.Errorf("server should count 1 client, got %d", srv.ClientCount())
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for srv.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.ClientCount() != 0 {
		t.Errorf("client should be removed after close, got %d", srv.ClientCount())
	}
}
