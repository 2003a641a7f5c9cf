package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bambi-eco/RARF/internal/colmap"
	"github.com/bambi-eco/RARF/internal/demcfg"
	"github.com/bambi-eco/RARF/internal/flightdb"
	"github.com/bambi-eco/RARF/internal/geo"
)

// flightFixture lays out a complete synthetic flight: a fake video with
// its caption track, pre-extracted frames, a flight log, and a DEM
// config.
type flightFixture struct {
	dir        string
	videoFile  string
	airFile    string
	demFile    string
	framesRoot string
}

const (
	fixtureLat       = 47.0
	fixtureLon       = 15.0
	fixtureAlt       = 500.0
	fixtureOriginAlt = 400.0
)

// logLat/logLon give the drone position s seconds after flight start.
func logLat(s float64) float64 { return fixtureLat + 1e-4*s }
func logLon(s float64) float64 { return fixtureLon + 2e-4*s }

func buildFixture(t *testing.T) flightFixture {
	t.Helper()
	dir := t.TempDir()
	fx := flightFixture{
		dir:        dir,
		videoFile:  filepath.Join(dir, "flight.mp4"),
		airFile:    filepath.Join(dir, "flight.csv"),
		demFile:    filepath.Join(dir, "dem.json"),
		framesRoot: filepath.Join(dir, "frames"),
	}

	// the video itself is never opened by the directory extractor
	if err := os.WriteFile(fx.videoFile, []byte("mp4"), 0o644); err != nil {
		t.Fatal(err)
	}

	// caption track: 6 blocks at 33ms starting one second into the log
	var srtDoc strings.Builder
	for i := 0; i < 6; i++ {
		s := 1.0 + 0.033*float64(i)
		ms := int(s * 1000)
		fmt.Fprintf(&srtDoc, "%d\n", i+1)
		fmt.Fprintf(&srtDoc, "00:00:%02d,%03d --> 00:00:%02d,%03d\n", ms/1000, ms%1000, ms/1000, ms%1000+33)
		fmt.Fprintf(&srtDoc, "<font size=\"28\">FrameCnt: %d, DiffTime: 33ms\n", i+1)
		fmt.Fprintf(&srtDoc, "2023-06-14 09:30:%02d,%03d\n", ms/1000, ms%1000)
		fmt.Fprintf(&srtDoc, "[latitude: %.7f] [longitude: %.7f] [rel_alt: 10.0 abs_alt: %.1f] </font>\n\n",
			logLat(s), logLon(s), fixtureAlt+s)
	}
	srtFile := strings.TrimSuffix(fx.videoFile, ".mp4") + ".srt"
	if err := os.WriteFile(srtFile, []byte(srtDoc.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	// pre-extracted frames for the video
	frameDir := filepath.Join(fx.framesRoot, "flight")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		name := filepath.Join(frameDir, fmt.Sprintf("frame_%03d.png", i))
		if err := os.WriteFile(name, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// flight log: 30 rows at 100ms, video recording between 1.0s and 2.5s
	var csvDoc strings.Builder
	csvDoc.WriteString("time(millisecond),datetime(utc),latitude,longitude,altitude,compass_heading(degrees),gimbal_pitch(degrees),isVideo\n")
	for i := 0; i < 30; i++ {
		ms := i * 100
		s := float64(ms) / 1000
		isVideo := 0
		if ms >= 1000 && ms <= 2500 {
			isVideo = 1
		}
		fmt.Fprintf(&csvDoc, "%d,2023-06-14 09:30:%02d,%.7f,%.7f,%.3f,%.1f,%.1f,%d\n",
			ms, ms/1000, logLat(s), logLon(s), fixtureAlt+s, 90.0, -90.0, isVideo)
	}
	if err := os.WriteFile(fx.airFile, []byte(csvDoc.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	dem := fmt.Sprintf(`{"origin_wgs84": {"latitude": %v, "longitude": %v, "altitude": %v}}`,
		fixtureLat, fixtureLon, fixtureOriginAlt)
	if err := os.WriteFile(fx.demFile, []byte(dem), 0o644); err != nil {
		t.Fatal(err)
	}

	return fx
}

func TestRun(t *testing.T) {
	fx := buildFixture(t)
	out := filepath.Join(fx.dir, "out")
	archive := filepath.Join(fx.dir, "flights.db")

	result, err := Run(&DirectoryExtractor{Root: fx.framesRoot}, Options{
		VideoFiles:    []string{fx.videoFile},
		AirdataFile:   fx.airFile,
		DEMConfigFile: fx.demFile,
		OutputDir:     out,
		SamplingRate:  2,
		Location:      time.UTC,
		ArchivePath:   archive,
		WriteReports:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// frames 0, 2, 4 of 6 at sampling rate 2
	if result.ImageCount != 3 {
		t.Errorf("ImageCount = %d, want 3", result.ImageCount)
	}
	// caption and log clocks agree in this fixture
	if math.Abs(result.ClockOffset) > 0.1 {
		t.Errorf("ClockOffset = %v, want ~0", result.ClockOffset)
	}

	images, err := colmap.ReadImagesText(filepath.Join(out, "images.txt"))
	if err != nil {
		t.Fatalf("read images.txt: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("got %d poses, want 3", len(images))
	}
	for i, img := range images {
		if img.CameraID != CameraID {
			t.Errorf("pose %d camera id = %d, want %d", i, img.CameraID, CameraID)
		}
		wantName := fmt.Sprintf("%d_%d_%d.png", i, 2*i, 2*i)
		if img.Name != wantName {
			t.Errorf("pose %d name = %q, want %q", i, img.Name, wantName)
		}
	}

	// the first pose sits one second into the flight: altitude 501 over
	// a 400m origin, Z negated by the camera convention
	z := images[0].Trans[2]
	if math.Abs(z-(-(fixtureAlt+1-fixtureOriginAlt))) > 0.2 {
		t.Errorf("pose 0 z = %v, want ~%v", z, -(fixtureAlt + 1 - fixtureOriginAlt))
	}
	// horizontal offsets follow the projected track away from the origin
	e1, n1 := geo.DefaultProjector.Project(logLat(1), logLon(1))
	e0, n0 := geo.DefaultProjector.Project(fixtureLat, fixtureLon)
	if math.Abs(images[0].Trans[0]-(e1-e0)) > 0.5 {
		t.Errorf("pose 0 x = %v, want ~%v", images[0].Trans[0], e1-e0)
	}
	if math.Abs(images[0].Trans[1]-(-(n1-n0))) > 0.5 {
		t.Errorf("pose 0 y = %v, want ~%v", images[0].Trans[1], -(n1 - n0))
	}

	// extracted frame images are in place
	for i, img := range images {
		if _, err := os.Stat(filepath.Join(out, "images", img.Name)); err != nil {
			t.Errorf("frame image %d missing: %v", i, err)
		}
	}

	// archive holds the session, its video run, and the poses
	db, err := flightdb.New(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	sessions, err := db.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != result.SessionID {
		t.Fatalf("sessions = %+v", sessions)
	}
	n, err := db.FrameCount(result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 16 { // log rows between 1.0s and 2.5s inclusive
		t.Errorf("archived frames = %d, want 16", n)
	}
	poses, err := db.Poses(result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(poses) != 3 {
		t.Errorf("archived poses = %d, want 3", len(poses))
	}

	// report outputs
	for _, name := range []string{"track.png", "profile.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("report %s missing: %v", name, err)
		}
	}
}

func TestRunMissingDEM(t *testing.T) {
	fx := buildFixture(t)
	out := filepath.Join(fx.dir, "out")

	result, err := Run(&DirectoryExtractor{Root: fx.framesRoot}, Options{
		VideoFiles:    []string{fx.videoFile},
		AirdataFile:   fx.airFile,
		DEMConfigFile: filepath.Join(fx.dir, "missing.json"),
		OutputDir:     out,
		SamplingRate:  3,
		Location:      time.UTC,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2", result.ImageCount)
	}

	// with a zero origin the translations are absolute projected values
	images, err := colmap.ReadImagesText(filepath.Join(out, "images.txt"))
	if err != nil {
		t.Fatal(err)
	}
	e, _ := geo.DefaultProjector.Project(logLat(1), logLon(1))
	if math.Abs(images[0].Trans[0]-e) > 1 {
		t.Errorf("pose 0 x = %v, want ~%v", images[0].Trans[0], e)
	}
}

func TestDemOriginEmptyConfig(t *testing.T) {
	// an empty document must behave like a missing config: zero origin,
	// nothing projected
	path := filepath.Join(t.TempDir(), "dem.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	origin, e, n := demOrigin(path)
	if origin != (demcfg.Origin{}) {
		t.Errorf("origin = %+v, want zero", origin)
	}
	if e != 0 || n != 0 {
		t.Errorf("projected origin = (%v, %v), want (0, 0)", e, n)
	}
}

func TestRunValidation(t *testing.T) {
	if _, err := Run(&DirectoryExtractor{}, Options{}); err == nil {
		t.Error("expected error for empty options")
	}
	if _, err := Run(&DirectoryExtractor{}, Options{VideoFiles: []string{"a.mp4"}}); err == nil {
		t.Error("expected error for missing flight log")
	}
}

func TestWrapDeg(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-450, 270},
	}
	for _, tt := range tests {
		if got := wrapDeg(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrapDeg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
