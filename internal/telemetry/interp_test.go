package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"
)

var base = time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC)

func frameAt(sec float64, set func(*Frame)) *Frame {
	f := &Frame{Timestamp: base.Add(time.Duration(sec * float64(time.Second)))}
	if set != nil {
		set(f)
	}
	return f
}

func TestInterpolatorLinear(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Altitude = Float(100) }),
		frameAt(10, func(f *Frame) { f.Altitude = Float(200) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{
		base,
		base.Add(5 * time.Second),
		base.Add(10 * time.Second),
		base.Add(20 * time.Second), // extrapolation
		base.Add(-5 * time.Second), // extrapolation before range
	})

	want := []float64{100, 150, 200, 300, 50}
	for i, w := range want {
		if got := *out[i].Altitude; got != w {
			t.Errorf("altitude[%d] = %f, want %f", i, got, w)
		}
	}
}

func TestInterpolatorSourceTimestampsExact(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Altitude = Float(0.1); f.Speed = Float(3.7) }),
		frameAt(3, func(f *Frame) { f.Altitude = Float(0.3); f.Speed = Float(9.1) }),
		frameAt(7, func(f *Frame) { f.Altitude = Float(0.7); f.Speed = Float(2.2) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	times := []time.Time{frames[0].Timestamp, frames[1].Timestamp, frames[2].Timestamp}
	out := ip.At(times)
	for i, src := range frames {
		if *out[i].Altitude != *src.Altitude {
			t.Errorf("altitude at source time %d = %v, want exact %v", i, *out[i].Altitude, *src.Altitude)
		}
		if *out[i].Speed != *src.Speed {
			t.Errorf("speed at source time %d = %v, want exact %v", i, *out[i].Speed, *src.Speed)
		}
	}
}

func TestInterpolatorAngularWrap(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.CompassHeading = Float(350) }),
		frameAt(10, func(f *Frame) { f.CompassHeading = Float(10) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{base.Add(5 * time.Second)})
	if got := *out[0].CompassHeading; math.Abs(got) > 1e-9 && math.Abs(got-360) > 1e-9 {
		t.Errorf("heading halfway between 350 and 10 = %f, want 0", got)
	}

	// a quarter of the way: 355, not 265
	out = ip.At([]time.Time{base.Add(2500 * time.Millisecond)})
	if got := *out[0].CompassHeading; math.Abs(got-355) > 1e-9 {
		t.Errorf("heading a quarter between 350 and 10 = %f, want 355", got)
	}
}

func TestInterpolatorAntimeridian(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Longitude = Float(179) }),
		frameAt(10, func(f *Frame) { f.Longitude = Float(-179) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{base.Add(5 * time.Second)})
	got := *out[0].Longitude
	if math.Abs(math.Abs(got)-180) > 1e-9 {
		t.Errorf("longitude halfway across the antimeridian = %f, want +/-180", got)
	}
}

func TestInterpolatorLongitudeOrdinary(t *testing.T) {
	// away from the antimeridian the heuristic must reduce to plain
	// linear interpolation
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Longitude = Float(15.0) }),
		frameAt(10, func(f *Frame) { f.Longitude = Float(15.4) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}
	out := ip.At([]time.Time{base.Add(5 * time.Second)})
	if got := *out[0].Longitude; math.Abs(got-15.2) > 1e-9 {
		t.Errorf("longitude = %f, want 15.2", got)
	}
}

func TestInterpolatorLatitudePole(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Latitude = Float(80) }),
		frameAt(10, func(f *Frame) { f.Latitude = Float(-80) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	// endpoints straddle the +/-45 bands, so the path runs across the
	// pole rather than through the equator
	out := ip.At([]time.Time{base.Add(5 * time.Second)})
	got := *out[0].Latitude
	if math.Abs(math.Abs(got)-90) > 1e-9 {
		t.Errorf("latitude halfway across the pole band = %f, want +/-90", got)
	}
}

func TestInterpolatorFlagsNearest(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.IsVideo = Float(0) }),
		frameAt(10, func(f *Frame) { f.IsVideo = Float(1) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		sec  float64
		want float64
	}{
		{0, 0},
		{2, 0},
		{8, 1},
		{10, 1},
	}
	for _, tt := range tests {
		out := ip.At([]time.Time{base.Add(time.Duration(tt.sec * float64(time.Second)))})
		if got := *out[0].IsVideo; got != tt.want {
			t.Errorf("isVideo at %gs = %f, want %f (never blended)", tt.sec, got, tt.want)
		}
	}
}

func TestInterpolatorStringsNearest(t *testing.T) {
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.FlycState = "GPS_Atti" }),
		frameAt(10, func(f *Frame) { f.FlycState = "AutoLanding" }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{base.Add(3 * time.Second), base.Add(9 * time.Second)})
	if out[0].FlycState != "GPS_Atti" {
		t.Errorf("near frame 0: FlycState = %q", out[0].FlycState)
	}
	if out[1].FlycState != "AutoLanding" {
		t.Errorf("near frame 1: FlycState = %q", out[1].FlycState)
	}
}

func TestInterpolatorSingleFrame(t *testing.T) {
	f := frameAt(0, func(f *Frame) {
		f.Latitude = Float(47.1)
		f.Longitude = Float(15.5)
		f.FlycState = "GPS_Atti"
	})
	ip, err := NewInterpolator([]*Frame{f})
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{base.Add(-time.Hour), base, base.Add(time.Hour)})
	if len(out) != 3 {
		t.Fatalf("got %d frames, want 3", len(out))
	}
	for i, o := range out {
		if *o.Latitude != 47.1 || *o.Longitude != 15.5 || o.FlycState != "GPS_Atti" {
			t.Errorf("frame %d did not carry the single source frame's values", i)
		}
	}
}

func TestInterpolatorEmpty(t *testing.T) {
	ip, err := NewInterpolator(nil)
	if err != nil {
		t.Fatal(err)
	}
	if out := ip.At([]time.Time{base}); len(out) != 0 {
		t.Errorf("empty source yielded %d frames, want 0", len(out))
	}
}

func TestInterpolatorSparseField(t *testing.T) {
	// Voltage only present on the second frame: carried from the nearest
	// frame instead of interpolated.
	frames := []*Frame{
		frameAt(0, func(f *Frame) { f.Altitude = Float(10) }),
		frameAt(10, func(f *Frame) { f.Altitude = Float(20); f.Voltage = Float(15.2) }),
	}
	ip, err := NewInterpolator(frames)
	if err != nil {
		t.Fatal(err)
	}

	out := ip.At([]time.Time{base.Add(2 * time.Second), base.Add(9 * time.Second)})
	if out[0].Voltage != nil {
		t.Errorf("voltage near the unpopulated frame = %v, want nil", *out[0].Voltage)
	}
	if out[1].Voltage == nil || *out[1].Voltage != 15.2 {
		t.Error("voltage near the populated frame was not carried")
	}
}

func TestInterpolatorMissingTimestamp(t *testing.T) {
	frames := []*Frame{frameAt(0, nil), {}}
	if _, err := NewInterpolator(frames); !errors.Is(err, ErrNoTimestamp) {
		t.Errorf("err = %v, want ErrNoTimestamp", err)
	}
}

func TestLerp(t *testing.T) {
	a := frameAt(0, func(f *Frame) {
		f.Altitude = Float(100)
		f.CompassHeading = Float(350)
		f.IsVideo = Float(0)
		f.FlycState = "GPS_Atti"
	})
	b := frameAt(10, func(f *Frame) {
		f.Altitude = Float(200)
		f.CompassHeading = Float(10)
		f.IsVideo = Float(1)
		f.FlycState = "AutoLanding"
	})

	mid := Lerp(a, b, 0.5)
	if *mid.Altitude != 150 {
		t.Errorf("altitude = %f, want 150", *mid.Altitude)
	}
	if h := *mid.CompassHeading; math.Abs(h) > 1e-9 && math.Abs(h-360) > 1e-9 {
		t.Errorf("heading = %f, want 0", h)
	}
	if *mid.IsVideo != 0 {
		t.Errorf("flag at weight 0.5 = %f, want near frame's 0", *mid.IsVideo)
	}
	if mid.FlycState != "GPS_Atti" {
		t.Errorf("string at weight 0.5 = %q, want near frame's value", mid.FlycState)
	}
	if want := base.Add(5 * time.Second); !mid.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", mid.Timestamp, want)
	}

	if got := Lerp(a, b, 0); *got.Altitude != 100 || got.FlycState != "GPS_Atti" {
		t.Error("weight 0 did not return the first frame's values")
	}
	if got := Lerp(a, b, 1); *got.Altitude != 200 || got.FlycState != "AutoLanding" || *got.IsVideo != 1 {
		t.Error("weight 1 did not return the second frame's values")
	}
}
