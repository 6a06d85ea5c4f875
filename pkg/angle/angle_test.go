package angle

import (
	"math"
	"strings"
	"testing"

	"github.com/seanybaggins/es38/pkg/quadrature"
)

func TestNew(t *testing.T) {
	a := New(600, 300)

	if a.Counts() != 300 {
		t.Errorf("Counts should be 300, got %d", a.Counts())
	}
	if a.CountsPerRev() != 600 {
		t.Errorf("CountsPerRev should be 600, got %d", a.CountsPerRev())
	}
}

func TestUpdate(t *testing.T) {
	a := New(600, 0)

	a.Update(quadrature.CounterClockwise)
	if a.Counts() != 1 {
		t.Errorf("CCW should increment counts to 1, got %d", a.Counts())
	}

	a.Update(quadrature.Clockwise)
	if a.Counts() != 0 {
		t.Errorf("CW should decrement counts to 0, got %d", a.Counts())
	}

	a.Update(quadrature.NoMotion)
	if a.Counts() != 0 {
		t.Errorf("NoMotion should leave counts at 0, got %d", a.Counts())
	}
}

func TestRotatedBackToOrigin(t *testing.T) {
	// Equal and opposite motion returns to the starting angle.
	a := New(600, 300)

	for i := 0; i < 300; i++ {
		a.Update(quadrature.Clockwise)
	}
	if deg := a.Degrees(); deg < -0.1 || deg > 0.1 {
		t.Errorf("300 CW steps from offset 300 should reach 0 deg, got %f", deg)
	}

	for i := 0; i < 300; i++ {
		a.Update(quadrature.CounterClockwise)
	}
	want := New(600, 300).Degrees()
	if deg := a.Degrees(); math.Abs(deg-want) > 1e-9 {
		t.Errorf("round trip should restore %f deg, got %f", want, deg)
	}
}

func TestHalfRevolutionDegrees(t *testing.T) {
	a := New(2400, 0)

	for i := 0; i < 1200; i++ {
		a.Update(quadrature.CounterClockwise)
	}
	if deg := a.Degrees(); math.Abs(deg-180.0) > 1e-6 {
		t.Errorf("1200 of 2400 counts should be 180 deg, got %f", deg)
	}

	b := New(2400, 0)
	for i := 0; i < 1200; i++ {
		b.Update(quadrature.Clockwise)
	}
	if deg := b.Degrees(); math.Abs(deg+180.0) > 1e-6 {
		t.Errorf("1200 CW of 2400 counts should be -180 deg, got %f", deg)
	}
}

func TestRadiansConsistentWithDegrees(t *testing.T) {
	a := New(2400, 0)
	for i := 0; i < 3000; i++ {
		a.Update(quadrature.CounterClockwise)

		want := a.Degrees() * math.Pi / 180.0
		if got := a.Radians(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("radians %f inconsistent with degrees %f at count %d",
				got, a.Degrees(), a.Counts())
		}
	}
}

func TestNoWrapPastFullRevolution(t *testing.T) {
	a := New(100, 0)
	for i := 0; i < 150; i++ {
		a.Update(quadrature.CounterClockwise)
	}

	// Free-running accumulator: 1.5 revolutions reads as 540, not 180.
	if deg := a.Degrees(); math.Abs(deg-540.0) > 1e-6 {
		t.Errorf("counts should not wrap at one revolution, got %f deg", deg)
	}
}

func TestSub(t *testing.T) {
	a := New(2400, 1200)
	b := New(2400, 200)

	d := a.Sub(b)
	if d.Counts() != 1000 {
		t.Errorf("Sub counts should be 1000, got %d", d.Counts())
	}
	if d.CountsPerRev() != 2400 {
		t.Errorf("Sub should preserve scale 2400, got %d", d.CountsPerRev())
	}

	neg := b.Sub(a)
	if neg.Counts() != -1000 {
		t.Errorf("Sub should be signed, got %d", neg.Counts())
	}
}

func TestSubMismatchedScalePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Sub with mismatched scales should panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "mismatched scales") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()

	a := New(2400, 0)
	b := New(600, 0)
	a.Sub(b)
}
