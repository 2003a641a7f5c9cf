package airdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

// SyncTolerance is the maximum distance between a video start time and
// the nearest video/photo-marked log frame before synchronization is
// considered failed.
const SyncTolerance = 60 * time.Second

// ErrSyncWindow reports that no video/photo-marked frame lies within
// SyncTolerance of the requested timestamp.
var ErrSyncWindow = errors.New("airdata: no video marker within the synchronization window")

// ErrNoVideoRun reports that the flight log does not contain a usable
// contiguous video recording run.
var ErrNoVideoRun = errors.New("airdata: no contiguous video run found")

func isSet(p *float64) bool { return p != nil && *p > 0 }

// VideoOffset returns the millisecond offset (as a duration from log
// start) of the video/photo-marked frame nearest to videoTime. The scan
// stops as soon as the distance starts growing again, so it touches only
// the prefix of a long log. Fails with ErrSyncWindow when the best match
// is more than SyncTolerance away.
func VideoOffset(frames []*telemetry.Frame, videoTime time.Time) (time.Duration, error) {
	if videoTime.IsZero() {
		return 0, fmt.Errorf("airdata: zero video time")
	}

	var best *telemetry.Frame
	var minDiff time.Duration
	for _, f := range frames {
		if !isSet(f.IsVideo) && !isSet(f.IsPhoto) {
			continue
		}
		diff := f.Timestamp.Sub(videoTime)
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < minDiff {
			best = f
			minDiff = diff
			continue
		}
		if diff > minDiff {
			break
		}
	}
	if best == nil {
		return 0, fmt.Errorf("%w: log has no video or photo markers", ErrSyncWindow)
	}
	if minDiff > SyncTolerance {
		return 0, fmt.Errorf("%w: nearest marker at %s is %s away from %s",
			ErrSyncWindow, best.Timestamp.Format(time.RFC3339), minDiff, videoTime.Format(time.RFC3339))
	}
	if best.TimeMS == nil {
		return 0, fmt.Errorf("airdata: marker frame %d has no time column", best.ID)
	}
	return time.Duration(*best.TimeMS * float64(time.Millisecond)), nil
}

// Synchronize assigns absolute timestamps to all frames: the first
// frame's UTC datetime is converted to loc and every frame's timestamp is
// derived from its millisecond offset relative to the first frame.
// AirData logs can arbitrarily miss datetime cells, so the first frame
// that carries one anchors the sequence.
func Synchronize(frames []*telemetry.Frame, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	var anchor time.Time
	for _, f := range frames {
		if !f.Timestamp.IsZero() {
			anchor = f.Timestamp.In(loc)
			break
		}
	}
	if anchor.IsZero() {
		return fmt.Errorf("airdata: no frame carries a datetime")
	}
	if len(frames) == 0 || frames[0].TimeMS == nil {
		return fmt.Errorf("airdata: first frame has no time column")
	}
	base := *frames[0].TimeMS
	for _, f := range frames {
		if f.TimeMS == nil {
			return fmt.Errorf("airdata: frame %d has no time column", f.ID)
		}
		f.Timestamp = anchor.Add(time.Duration((*f.TimeMS - base) * float64(time.Millisecond)))
	}
	return nil
}

// VideoSegment reduces a synchronized flight log to the contiguous run of
// video-flagged frames covering the recording that starts near videoTime.
// Frames before the recording start are ignored even when flagged, which
// skips earlier recordings in the same log.
func VideoSegment(frames []*telemetry.Frame, videoTime time.Time) ([]*telemetry.Frame, error) {
	offset, err := VideoOffset(frames, videoTime)
	if err != nil {
		return nil, err
	}

	inRun := func(f *telemetry.Frame) bool {
		if f.TimeMS == nil {
			return false
		}
		return time.Duration(*f.TimeMS*float64(time.Millisecond)) >= offset && isSet(f.IsVideo)
	}

	first := -1
	for i, f := range frames {
		if inRun(f) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, ErrNoVideoRun
	}
	last := len(frames) - 1
	for i := first + 1; i < len(frames); i++ {
		if !inRun(frames[i]) {
			last = i - 1
			break
		}
	}
	if first >= last {
		return nil, fmt.Errorf("%w: frames %d and %d do not form a run", ErrNoVideoRun, first, last)
	}
	return frames[first : last+1], nil
}

// StartEnd extracts the first and last UTC timestamps of a flight log.
func StartEnd(frames []*telemetry.Frame) (start, end time.Time, err error) {
	for _, f := range frames {
		if f.Timestamp.IsZero() {
			continue
		}
		if start.IsZero() {
			start = f.Timestamp
		}
		end = f.Timestamp
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("airdata: log carries no datetime")
	}
	return start, end, nil
}
