// Package align estimates the clock offset between a caption telemetry
// track and a flight log by minimizing the positional disagreement
// between the two.
package align

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/optimize"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

// ErrInsufficientData reports that one of the tracks has no usable
// position samples.
var ErrInsufficientData = errors.New("align: not enough position samples")

// track is one time series of positions, seconds relative to a shared
// epoch.
type track struct {
	seconds []float64
	lats    []float64
	lons    []float64
}

// Offset finds the time shift, in seconds, that best aligns the caption
// track onto the flight log. Both tracks must carry absolute timestamps
// and positions. The returned MSE is the mean squared degree error of
// the aligned track; callers can use it to reject bad fits.
func Offset(captions, log []*telemetry.Frame) (offset, mse float64, err error) {
	capTr, logTr, err := prepare(captions, log)
	if err != nil {
		return 0, 0, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return alignmentMSE(capTr, logTr, x[0]) },
	}
	result, err := optimize.Minimize(problem, []float64{0}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, fmt.Errorf("align: minimize: %w", err)
	}
	return result.X[0], result.F, nil
}

func prepare(captions, log []*telemetry.Frame) (capTr, logTr track, err error) {
	if len(log) == 0 {
		return track{}, track{}, ErrInsufficientData
	}
	// seconds relative to the first flight-log frame
	epoch := log[0].Timestamp
	if epoch.IsZero() {
		return track{}, track{}, fmt.Errorf("align: flight log has no timestamps: %w", ErrInsufficientData)
	}

	fill := func(frames []*telemetry.Frame) track {
		var tr track
		for _, f := range frames {
			if f.Latitude == nil || f.Longitude == nil || f.Timestamp.IsZero() {
				continue
			}
			tr.seconds = append(tr.seconds, f.Timestamp.Sub(epoch).Seconds())
			tr.lats = append(tr.lats, *f.Latitude)
			tr.lons = append(tr.lons, *f.Longitude)
		}
		return tr
	}

	capTr = fill(captions)
	logTr = fill(log)
	if len(capTr.seconds) < 1 || len(logTr.seconds) < 2 {
		return track{}, track{}, ErrInsufficientData
	}
	return capTr, logTr, nil
}

// alignmentMSE evaluates the mean squared latitude/longitude error of
// the caption track shifted by s seconds against the flight log.
func alignmentMSE(capTr, logTr track, s float64) float64 {
	var sum float64
	for i, t := range capTr.seconds {
		lat := interp(t+s, logTr.seconds, logTr.lats)
		lon := interp(t+s, logTr.seconds, logTr.lons)
		dLat := lat - capTr.lats[i]
		dLon := lon - capTr.lons[i]
		sum += dLat*dLat + dLon*dLon
	}
	return sum / float64(len(capTr.seconds))
}

// interp is edge clamped piecewise linear interpolation over a sorted
// abscissa.
func interp(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	// xs[i-1] < x <= xs[i]
	if xs[i] == x {
		return ys[i]
	}
	w := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + (ys[i]-ys[i-1])*w
}
