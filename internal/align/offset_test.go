package align

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

// syntheticTrack builds a flight path moving linearly northeast, one
// sample per interval.
func syntheticTrack(start time.Time, n int, interval time.Duration) []*telemetry.Frame {
	frames := make([]*telemetry.Frame, n)
	for i := range frames {
		t := start.Add(time.Duration(i) * interval)
		seconds := t.Sub(start).Seconds()
		frames[i] = &telemetry.Frame{
			ID:        i,
			Timestamp: t,
			Latitude:  telemetry.Float(47 + 1e-4*seconds),
			Longitude: telemetry.Float(15 + 2e-4*seconds),
		}
	}
	return frames
}

func TestOffsetRecoversShift(t *testing.T) {
	start := time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC)
	log := syntheticTrack(start, 120, time.Second)

	// captions follow the same path but their clock runs 4.2s early
	const shift = 4.2
	captions := syntheticTrack(start.Add(10*time.Second), 60, 200*time.Millisecond)
	for _, f := range captions {
		f.Timestamp = f.Timestamp.Add(-time.Duration(shift * float64(time.Second)))
	}

	offset, mse, err := Offset(captions, log)
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if math.Abs(offset-shift) > 0.05 {
		t.Errorf("offset = %v, want %v +-0.05", offset, shift)
	}
	if mse > 1e-9 {
		t.Errorf("mse = %v, want near zero for a perfect track", mse)
	}
}

func TestOffsetZeroShift(t *testing.T) {
	start := time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC)
	log := syntheticTrack(start, 60, time.Second)
	captions := syntheticTrack(start.Add(5*time.Second), 30, 500*time.Millisecond)

	offset, _, err := Offset(captions, log)
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if math.Abs(offset) > 0.05 {
		t.Errorf("offset = %v, want ~0", offset)
	}
}

func TestOffsetInsufficientData(t *testing.T) {
	start := time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC)
	log := syntheticTrack(start, 10, time.Second)

	_, _, err := Offset(nil, log)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty captions: err = %v, want ErrInsufficientData", err)
	}

	captions := syntheticTrack(start, 10, time.Second)
	_, _, err = Offset(captions, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty log: err = %v, want ErrInsufficientData", err)
	}

	// frames without positions are as good as no frames
	blind := []*telemetry.Frame{{Timestamp: start}, {Timestamp: start.Add(time.Second)}}
	_, _, err = Offset(blind, log)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("blind captions: err = %v, want ErrInsufficientData", err)
	}
}

func TestInterp(t *testing.T) {
	xs := []float64{0, 1, 3}
	ys := []float64{10, 20, 40}
	tests := []struct {
		x    float64
		want float64
	}{
		{-1, 10}, // clamped left
		{0, 10},
		{0.5, 15},
		{1, 20},
		{2, 30},
		{3, 40},
		{9, 40}, // clamped right
	}
	for _, tt := range tests {
		if got := interp(tt.x, xs, ys); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("interp(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
