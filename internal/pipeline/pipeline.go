// Package pipeline orchestrates the full extraction run: caption and
// flight-log parsing, clock alignment, frame extraction, pose
// computation, and the COLMAP image file output.
package pipeline

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/bambi-eco/RARF/internal/airdata"
	"github.com/bambi-eco/RARF/internal/align"
	"github.com/bambi-eco/RARF/internal/colmap"
	"github.com/bambi-eco/RARF/internal/demcfg"
	"github.com/bambi-eco/RARF/internal/flightdb"
	"github.com/bambi-eco/RARF/internal/geo"
	"github.com/bambi-eco/RARF/internal/report"
	"github.com/bambi-eco/RARF/internal/srt"
	"github.com/bambi-eco/RARF/internal/telemetry"
)

// CameraID is the shared COLMAP camera id assigned to every pose.
const CameraID = 1

// poseConversion flips the projected east/north/up frame into the
// camera convention: Y and Z negated.
var poseConversion = mat.NewDense(3, 3, []float64{
	1, 0, 0,
	0, -1, 0,
	0, 0, -1,
})

// Options configures one extraction run.
type Options struct {
	// VideoFiles are the flight videos; each must have a caption file
	// with the same name and a .srt extension next to it.
	VideoFiles  []string
	AirdataFile string
	// DEMConfigFile points at the elevation model config; a missing or
	// unreadable file means poses come out relative to a zero origin.
	DEMConfigFile string
	OutputDir     string
	// SamplingRate is the frame step when extracting; values below 1
	// extract every frame.
	SamplingRate int
	ImageExt     string
	// Location is the time zone the drone clock ran in; nil means the
	// local zone.
	Location *time.Location
	// ArchivePath enables recording the run into a flight archive.
	ArchivePath string
	// WriteReports enables the ground-track and profile outputs.
	WriteReports bool
}

// Result summarizes a finished run.
type Result struct {
	SessionID    string
	ImageCount   int
	ClockOffset  float64
	AlignmentMSE float64
}

// Run executes the extraction end to end and writes images/ and
// images.txt into the output directory.
func Run(extractor FrameExtractor, opts Options) (*Result, error) {
	if len(opts.VideoFiles) == 0 {
		return nil, errors.New("pipeline: no video files")
	}
	if opts.AirdataFile == "" {
		return nil, errors.New("pipeline: no flight log")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	sampling := opts.SamplingRate
	if sampling < 1 {
		sampling = 1
	}
	ext := opts.ImageExt
	if ext == "" {
		ext = "png"
	}

	imagesDir := filepath.Join(opts.OutputDir, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("pipeline: create output dir: %w", err)
	}

	// caption tracks, one per video, reinterpreted in the drone's zone
	var srtParser srt.Parser
	perVideo := make([][]*telemetry.Frame, len(opts.VideoFiles))
	var captions []*telemetry.Frame
	for v, video := range opts.VideoFiles {
		srtFile := strings.TrimSuffix(video, filepath.Ext(video)) + ".srt"
		frames, err := srtParser.ParseFile(srtFile, telemetry.ParseOptions{})
		if err != nil {
			return nil, err
		}
		for _, f := range frames {
			f.Timestamp = rezone(f.Timestamp, loc)
		}
		perVideo[v] = frames
		captions = append(captions, frames...)
	}
	if len(captions) == 0 {
		return nil, errors.New("pipeline: caption tracks are empty")
	}

	// flight log: absolute timestamps, then the recording's video run
	var adParser airdata.Parser
	adFrames, err := adParser.ParseFile(opts.AirdataFile, telemetry.ParseOptions{})
	if err != nil {
		return nil, err
	}
	flightStart, flightEnd, err := airdata.StartEnd(adFrames)
	if err != nil {
		return nil, err
	}
	if err := airdata.Synchronize(adFrames, loc); err != nil {
		return nil, err
	}
	segment, err := airdata.VideoSegment(adFrames, captions[0].Timestamp)
	if err != nil {
		return nil, err
	}

	offset, mse, err := align.Offset(captions, segment)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: clock offset %.3fs (mse %.3g)", offset, mse)
	shift := time.Duration(offset * float64(time.Second))
	for _, f := range captions {
		f.Timestamp = f.Timestamp.Add(shift)
	}

	// pull sampled frames out of the videos
	var imageNames []string
	var imageTimes []time.Time
	for v, video := range opts.VideoFiles {
		vidCaptions := perVideo[v]
		err := extractor.ExtractFrames(video, sampling, func(frameIdx int) (string, bool) {
			if frameIdx >= len(vidCaptions) {
				return "", false
			}
			caption := vidCaptions[frameIdx]
			name := fmt.Sprintf("%d_%d_%d.%s", len(imageNames), frameIdx, caption.ID, ext)
			imageNames = append(imageNames, name)
			imageTimes = append(imageTimes, caption.Timestamp)
			return filepath.Join(imagesDir, name), true
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: extract %s: %w", video, err)
		}
	}
	if len(imageNames) == 0 {
		return nil, errors.New("pipeline: no frames extracted")
	}

	interp, err := telemetry.NewInterpolator(segment)
	if err != nil {
		return nil, err
	}
	posed := interp.At(imageTimes)

	origin, originE, originN := demOrigin(opts.DEMConfigFile)

	images := make([]colmap.Image, 0, len(imageNames))
	for i, name := range imageNames {
		quat, trans, err := cameraPose(posed[i], origin, originE, originN)
		if err != nil {
			return nil, fmt.Errorf("pipeline: pose for %s: %w", name, err)
		}
		images = append(images, colmap.Image{
			ID:       uint32(i),
			Quat:     quat,
			Trans:    trans,
			CameraID: CameraID,
			Name:     name,
		})
	}

	imageFile := filepath.Join(opts.OutputDir, "images.txt")
	if err := colmap.WriteImagesText(imageFile, images); err != nil {
		return nil, err
	}
	log.Printf("pipeline: wrote %d poses to %s", len(images), imageFile)

	result := &Result{
		ImageCount:   len(images),
		ClockOffset:  offset,
		AlignmentMSE: mse,
	}

	if opts.ArchivePath != "" {
		if err := archive(opts, segment, images, flightStart, flightEnd, offset, result); err != nil {
			return nil, err
		}
	}

	if opts.WriteReports {
		if err := report.GroundTrack(segment, filepath.Join(opts.OutputDir, "track.png")); err != nil {
			return nil, err
		}
		if err := report.FlightProfile(segment, filepath.Join(opts.OutputDir, "profile.html")); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// archive records the run in the flight database.
func archive(opts Options, segment []*telemetry.Frame, images []colmap.Image,
	flightStart, flightEnd time.Time, offset float64, result *Result) error {

	db, err := flightdb.New(opts.ArchivePath)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID, err := db.CreateSession(opts.VideoFiles[0], opts.AirdataFile, flightStart, flightEnd, offset)
	if err != nil {
		return err
	}
	if err := db.RecordFrames(sessionID, segment); err != nil {
		return err
	}
	poses := make([]flightdb.Pose, len(images))
	for i, img := range images {
		poses[i] = flightdb.Pose{
			ImageID:  img.ID,
			Name:     img.Name,
			Quat:     img.Quat,
			Trans:    img.Trans,
			CameraID: img.CameraID,
		}
	}
	if err := db.RecordPoses(sessionID, poses); err != nil {
		return err
	}
	result.SessionID = sessionID
	return nil
}

// demOrigin loads the elevation model origin and its projection. A
// missing config degrades to a zero origin so poses stay usable, just
// not georeferenced.
func demOrigin(path string) (demcfg.Origin, float64, float64) {
	cfg, err := demcfg.Load(path)
	if err != nil {
		log.Printf("pipeline: no DEM origin (%v), using zero origin", err)
		return demcfg.Origin{}, 0, 0
	}
	origin := cfg.OriginWGS84
	e, n := geo.DefaultProjector.Project(origin.Latitude, origin.Longitude)
	return origin, e, n
}

// cameraPose converts one interpolated flight-log frame into a COLMAP
// pose. The translation is the projected offset from the DEM origin;
// the rotation is built from gimbal pitch and compass heading, with
// roll pinned to zero.
func cameraPose(f *telemetry.Frame, origin demcfg.Origin, originE, originN float64) ([4]float64, [3]float64, error) {
	if f.Latitude == nil || f.Longitude == nil {
		return [4]float64{}, [3]float64{}, errors.New("no position")
	}
	e, n := geo.DefaultProjector.Project(*f.Latitude, *f.Longitude)
	altitude := 0.0
	if f.Altitude != nil {
		altitude = *f.Altitude
	}
	tVec := mat.NewDense(3, 1, []float64{
		e - originE,
		n - originN,
		altitude - origin.Altitude,
	})
	var colT mat.Dense
	colT.Mul(poseConversion, tVec)

	// pitch rotates around X; the gimbal reports 0 when facing forward,
	// so straight down comes out as -90 and the +90 recenters it
	pitch := 0.0
	if f.GimbalPitch != nil {
		pitch = *f.GimbalPitch + 90
	}
	heading := 0.0
	if f.CompassHeading != nil {
		heading = *f.CompassHeading
	}
	rMat := geo.EulerXYZ(wrapDeg(pitch), 0, wrapDeg(heading))
	var colR mat.Dense
	colR.Mul(poseConversion, rMat)
	q := geo.MatToQuat(&colR)

	return [4]float64{q.W, q.X, q.Y, q.Z},
		[3]float64{colT.At(0, 0), colT.At(1, 0), colT.At(2, 0)}, nil
}

// wrapDeg maps an angle into [0, 360).
func wrapDeg(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// rezone reinterprets a wall-clock time in the given zone. Caption
// timestamps have no zone of their own; they read in whatever zone the
// drone's clock was set to.
func rezone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
