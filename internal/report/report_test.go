package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

func sampleFlight() []*telemetry.Frame {
	start := time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC)
	frames := make([]*telemetry.Frame, 20)
	for i := range frames {
		frames[i] = &telemetry.Frame{
			ID:        i,
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Latitude:  telemetry.Float(47 + 1e-5*float64(i)),
			Longitude: telemetry.Float(15 + 2e-5*float64(i)),
			Altitude:  telemetry.Float(100 + float64(i)),
			Speed:     telemetry.Float(20),
		}
	}
	return frames
}

func TestGroundTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.png")
	if err := GroundTrack(sampleFlight(), path); err != nil {
		t.Fatalf("GroundTrack: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty plot file")
	}
}

func TestGroundTrackNoPositions(t *testing.T) {
	frames := []*telemetry.Frame{{ID: 0}, {ID: 1}}
	err := GroundTrack(frames, filepath.Join(t.TempDir(), "track.png"))
	if !errors.Is(err, ErrNoPositions) {
		t.Errorf("err = %v, want ErrNoPositions", err)
	}
}

func TestFlightProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.html")
	if err := FlightProfile(sampleFlight(), path); err != nil {
		t.Fatalf("FlightProfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"altitude", "speed", "Flight Profile"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered chart is missing %q", want)
		}
	}
}

func TestFlightProfileNoTimestamps(t *testing.T) {
	frames := []*telemetry.Frame{{ID: 0, Altitude: telemetry.Float(1)}}
	err := FlightProfile(frames, filepath.Join(t.TempDir(), "profile.html"))
	if !errors.Is(err, ErrNoPositions) {
		t.Errorf("err = %v, want ErrNoPositions", err)
	}
}
