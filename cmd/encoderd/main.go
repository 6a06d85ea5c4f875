// encoderd tracks a quadrature rotary encoder attached to GPIO pins
// and serves angle/velocity readings over HTTP and WebSocket.
//
// Usage:
//
//	encoderd -config /etc/encoderd.yaml [options]
//
// Options:
//
//	-config string  Configuration file (defaults apply when omitted)
//	-addr string    Telemetry listen address override
//	-loglevel string  Log level override (debug, info, warn, error)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/seanybaggins/es38/pkg/angle"
	"github.com/seanybaggins/es38/pkg/clock"
	"github.com/seanybaggins/es38/pkg/config"
	"github.com/seanybaggins/es38/pkg/encoder"
	"github.com/seanybaggins/es38/pkg/gpio"
	"github.com/seanybaggins/es38/pkg/log"
	"github.com/seanybaggins/es38/pkg/metrics"
	"github.com/seanybaggins/es38/pkg/quadrature"
	"github.com/seanybaggins/es38/pkg/telemetry"
)

func main() {
	configFile := flag.String("config", "", "Configuration file")
	addr := flag.String("addr", "", "Telemetry listen address override")
	logLevel := flag.String("loglevel", "", "Log level override")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Telemetry.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := log.New("encoderd")
	logger.SetLevel(log.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(log.ParseFormat(cfg.Logging.Format))
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetWriter(f)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("exiting")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	pinA, err := config.ParsePin(cfg.Pins.A)
	if err != nil {
		return err
	}
	pinB, err := config.ParsePin(cfg.Pins.B)
	if err != nil {
		return err
	}

	pins, err := gpio.OpenPair(pinA, pinB)
	if err != nil {
		return err
	}
	defer pins.Close()

	var source encoder.DirectionSource
	if cfg.Encoder.HalfStep {
		source = quadrature.NewHalfStepDecoder(pins)
	} else {
		source = quadrature.NewDecoder(pins)
	}

	registry := metrics.NewRegistry()
	h := newHost(hostConfig{
		source:       source,
		countsPerRev: cfg.Encoder.CountsPerRev,
		originOffset: cfg.Encoder.OriginOffsetCounts,
		metrics:      metrics.NewEncoderMetrics(registry),
		logger:       logger.WithPrefix("host"),
	})

	logger.WithFields(log.Fields{
		"counts_per_rev": cfg.Encoder.CountsPerRev,
		"pins":           fmt.Sprintf("%s %s", cfg.Pins.A, cfg.Pins.B),
		"half_step":      cfg.Encoder.HalfStep,
	}).Info("encoder session starting")

	quit := make(chan struct{})
	go h.pollLoop(time.Duration(cfg.Encoder.PollPeriodMS)*time.Millisecond, quit)

	var server *telemetry.Server
	serverErr := make(chan error, 1)
	if cfg.Telemetry.Addr != "" {
		serverCfg := telemetry.Config{
			Addr:         cfg.Telemetry.Addr,
			ReportPeriod: time.Duration(cfg.Telemetry.ReportPeriodMS) * time.Millisecond,
			Sampler:      h,
			Registry:     registry,
			Logger:       logger.WithPrefix("telemetry"),
		}
		if cfg.Telemetry.AccessLog {
			serverCfg.AccessLog = os.Stdout
		}
		server = telemetry.New(serverCfg)
		go func() {
			serverErr <- server.Start()
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("received %v, shutting down", s)
	case err := <-serverErr:
		if err != nil {
			close(quit)
			return err
		}
	}

	close(quit)
	if server != nil {
		server.Stop()
	}
	return nil
}

type hostConfig struct {
	source       encoder.DirectionSource
	countsPerRev uint16
	originOffset int16
	metrics      *metrics.EncoderMetrics
	logger       *log.Logger
}

// host owns the encoder session. The poll loop is the only writer;
// telemetry snapshots synchronize through the host lock, which is the
// critical-section discipline the session itself leaves to its owner.
type host struct {
	cfg   hostConfig
	clock *clock.Source

	mu      sync.Mutex
	session *encoder.Session
}

func newHost(cfg hostConfig) *host {
	src := clock.NewSource()
	start := angle.New(cfg.countsPerRev, cfg.originOffset)
	return &host{
		cfg:     cfg,
		clock:   src,
		session: encoder.NewSession(cfg.source, start, src.Now()),
	}
}

// pollLoop samples the decoder at a fixed period until quit closes.
func (h *host) pollLoop(period time.Duration, quit <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			h.poll()
		}
	}
}

func (h *host) poll() {
	now := h.clock.Now()

	h.mu.Lock()
	direction, err := h.session.OnPulse(now)
	h.mu.Unlock()

	m := h.cfg.metrics
	if err != nil {
		m.DecodeErrors.Inc()
		h.cfg.logger.WithError(err).Warn("decode failed")
		return
	}

	switch direction {
	case quadrature.Clockwise:
		m.Pulses.Inc()
		m.PulsesCW.Inc()
	case quadrature.CounterClockwise:
		m.Pulses.Inc()
		m.PulsesCCW.Inc()
	}
}

// Snapshot implements telemetry.Sampler.
func (h *host) Snapshot() telemetry.Reading {
	now := h.clock.Now()

	h.mu.Lock()
	a := h.session.Angle()
	w := h.session.SampleVelocity(now)
	h.mu.Unlock()

	reading := telemetry.Reading{
		TimestampMS:  uint32(now),
		Counts:       a.Counts(),
		CountsPerRev: a.CountsPerRev(),
		Degrees:      a.Degrees(),
		Radians:      a.Radians(),
	}

	m := h.cfg.metrics
	m.AngleDegrees.Set(reading.Degrees)

	degPerSec, err := w.DegreesPerSec()
	if err != nil {
		m.RateErrors.Inc()
		reading.RateError = err.Error()
		return reading
	}
	radPerSec, err := w.RadiansPerSec()
	if err != nil {
		m.RateErrors.Inc()
		reading.RateError = err.Error()
		return reading
	}

	reading.DegreesPerSec = degPerSec
	reading.RadiansPerSec = radPerSec
	reading.RateValid = true
	m.DegreesPerSec.Set(degPerSec)
	return reading
}
