// encoder-sim drives an encoder session with a synthetic rotation
// profile and prints the tracked angle and velocity. It exercises the
// full decode-accumulate-estimate path without hardware, including an
// idle phase showing the velocity window decaying to rest.
//
// Usage:
//
//	encoder-sim [-counts-per-rev 2400] [-deg-per-sec 180] [-spin-ms 3000] [-idle-ms 1000]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/seanybaggins/es38/pkg/angle"
	"github.com/seanybaggins/es38/pkg/clock"
	"github.com/seanybaggins/es38/pkg/encoder"
	"github.com/seanybaggins/es38/pkg/quadrature"
)

// spinSource emits one detent every pulsePeriod of simulated time and
// NoMotion in between, switching to all-NoMotion after spinUntil.
type spinSource struct {
	direction   quadrature.Direction
	pulsePeriod clock.Millis
	spinUntil   clock.Millis
	now         clock.Millis
	lastPulse   clock.Millis
}

func (s *spinSource) Decode() (quadrature.Direction, error) {
	if s.now > s.spinUntil {
		return quadrature.NoMotion, nil
	}
	if s.now-s.lastPulse < s.pulsePeriod {
		return quadrature.NoMotion, nil
	}
	s.lastPulse = s.now
	return s.direction, nil
}

func main() {
	countsPerRev := flag.Uint("counts-per-rev", 2400, "Encoder counts per revolution")
	degPerSec := flag.Float64("deg-per-sec", 180.0, "Simulated rotation rate (negative for clockwise)")
	spinMS := flag.Uint("spin-ms", 3000, "Spin phase duration")
	idleMS := flag.Uint("idle-ms", 1000, "Idle phase duration")
	reportMS := flag.Uint("report-ms", 250, "Report period")
	flag.Parse()

	if *countsPerRev == 0 || *countsPerRev > 0xffff {
		fmt.Fprintln(os.Stderr, "Error: counts-per-rev must be in 1..65535")
		os.Exit(1)
	}
	if *degPerSec == 0 {
		fmt.Fprintln(os.Stderr, "Error: deg-per-sec must be nonzero")
		os.Exit(1)
	}

	direction := quadrature.CounterClockwise
	rate := *degPerSec
	if rate < 0 {
		direction = quadrature.Clockwise
		rate = -rate
	}

	degPerCount := 360.0 / float64(*countsPerRev)
	pulsePeriod := clock.Millis(degPerCount / rate * 1000.0)
	if pulsePeriod == 0 {
		pulsePeriod = 1
	}

	source := &spinSource{
		direction:   direction,
		pulsePeriod: pulsePeriod,
		spinUntil:   clock.Millis(*spinMS),
	}
	session := encoder.NewSession(source, angle.New(uint16(*countsPerRev), 0), 0)

	fmt.Printf("simulating %.1f deg/s %s for %dms, then %dms idle\n\n",
		rate, direction, *spinMS, *idleMS)
	fmt.Printf("%10s %10s %12s %14s\n", "time(ms)", "counts", "degrees", "deg/sec")

	total := clock.Millis(*spinMS + *idleMS)
	nextReport := clock.Millis(*reportMS)
	for now := clock.Millis(1); now <= total; now++ {
		source.now = now
		if _, err := session.OnPulse(now); err != nil {
			fmt.Fprintf(os.Stderr, "Error: decode: %v\n", err)
			os.Exit(1)
		}

		if now >= nextReport {
			nextReport += clock.Millis(*reportMS)
			a := session.Angle()
			rateStr := "---"
			if degSec, err := session.Window().DegreesPerSec(); err == nil {
				rateStr = fmt.Sprintf("%.2f", degSec)
			}
			fmt.Printf("%10d %10d %12.2f %14s\n", now, a.Counts(), a.Degrees(), rateStr)
		}
	}

	a := session.Angle()
	fmt.Printf("\nfinal position: %d counts (%.2f deg, %.4f rad)\n",
		a.Counts(), a.Degrees(), a.Radians())
}
