package telemetry

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// wrap maps v into [0, period).
func wrap(v, period float64) float64 {
	m := math.Mod(v, period)
	if m < 0 {
		m += period
	}
	return m
}

// periodicLerp interpolates between two values of a periodic quantity in
// the shifted domain [0, period). When the endpoints sit on opposite
// sides of the threshold bands (one above period-threshold, the other
// below threshold) the interpolation runs along the short path across the
// wrap point instead of the naive linear path.
func periodicLerp(a, b, weight, period, threshold float64) float64 {
	switch {
	case a > period-threshold && b < threshold:
		b += period
	case b > period-threshold && a < threshold:
		a += period
	}
	return wrap(a+(b-a)*weight, period)
}

// lerpPolicy interpolates a single pair of values under the given policy.
// Nearest resolution for PolicyNearest happens in the callers, which know
// the time axis.
func lerpPolicy(a, b, weight float64, policy Policy) float64 {
	switch policy {
	case PolicyAngular:
		// headings live in [0, 360); the 90-degree band on each side of
		// the wrap point triggers the short path
		return periodicLerp(wrap(a, AngularPeriod), wrap(b, AngularPeriod), weight, AngularPeriod, AngularPeriod/4)
	case PolicyLatitude:
		u := periodicLerp(a+90, b+90, weight, LatitudePeriod, LatitudeThreshold)
		return u - 90
	case PolicyLongitude:
		u := periodicLerp(a+180, b+180, weight, LongitudePeriod, LongitudeThreshold)
		return u - 180
	default:
		return a + (b-a)*weight
	}
}

// Lerp interpolates between two frames. weight is the distance from a: 0
// returns a's values, 1 returns b's. Fields populated in only one of the
// frames are carried from the nearer frame. Flags and strings are never
// blended; they resolve to the nearer frame, with weight exactly 1
// resolving to b.
func Lerp(a, b *Frame, weight float64) *Frame {
	out := &Frame{ID: a.ID}
	if weight == 1 {
		out.ID = b.ID
	}

	near := a
	if weight > 0.5 {
		near = b
	}

	for _, fl := range floatFields {
		av, bv := *fl.ptr(a), *fl.ptr(b)
		dst := fl.ptr(out)
		switch {
		case weight == 0:
			if av != nil {
				v := *av
				*dst = &v
			}
		case weight == 1:
			if bv != nil {
				v := *bv
				*dst = &v
			}
		case av == nil || bv == nil || fl.policy == PolicyNearest:
			if nv := *fl.ptr(near); nv != nil {
				v := *nv
				*dst = &v
			}
		default:
			v := lerpPolicy(*av, *bv, weight, fl.policy)
			*dst = &v
		}
	}

	for _, sf := range stringFields {
		switch {
		case weight == 1:
			*sf.ptr(out) = *sf.ptr(b)
		default:
			*sf.ptr(out) = *sf.ptr(near)
		}
	}

	out.Start = near.Start
	out.End = near.End
	if weight == 1 {
		out.Start, out.End = b.Start, b.End
	}

	if !a.Timestamp.IsZero() && !b.Timestamp.IsZero() {
		out.Timestamp = a.Timestamp.Add(time.Duration(weight * float64(b.Timestamp.Sub(a.Timestamp))))
	} else {
		out.Timestamp = near.Timestamp
	}
	return out
}

// Interpolator resamples a timestamped frame sequence at arbitrary target
// times, field by field. Targets outside the source range are linearly
// extrapolated, never rejected.
type Interpolator struct {
	frames  []*Frame
	start   time.Time
	seconds []float64
}

// NewInterpolator builds an interpolator over frames, which must all carry
// an absolute timestamp. The frame slice is kept by reference; frames are
// treated as immutable from here on.
func NewInterpolator(frames []*Frame) (*Interpolator, error) {
	ip := &Interpolator{frames: frames}
	if len(frames) == 0 {
		return ip, nil
	}
	for i, f := range frames {
		if f == nil || f.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: frame %d", ErrNoTimestamp, i)
		}
	}
	ip.start = frames[0].Timestamp
	ip.seconds = make([]float64, len(frames))
	for i, f := range frames {
		ip.seconds[i] = f.Timestamp.Sub(ip.start).Seconds()
	}
	return ip, nil
}

// At produces one interpolated frame per target time. An empty source
// sequence yields an empty result; a single-frame source yields that
// frame's values unchanged for every target.
func (ip *Interpolator) At(times []time.Time) []*Frame {
	if len(ip.frames) == 0 {
		return nil
	}

	out := make([]*Frame, len(times))
	if len(ip.frames) == 1 {
		for i := range times {
			f := ip.frames[0].Clone()
			f.ID = i
			out[i] = f
		}
		return out
	}

	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = t.Sub(ip.start).Seconds()
	}

	for i := range out {
		out[i] = &Frame{ID: i}
	}

	for _, fl := range floatFields {
		vals, ok := ip.gather(fl)
		if !ok {
			// sparsely populated field: carry the nearest frame's value
			for i, x := range xs {
				if nv := *fl.ptr(ip.frames[ip.nearest(x)]); nv != nil {
					v := *nv
					*fl.ptr(out[i]) = &v
				}
			}
			continue
		}

		switch fl.policy {
		case PolicyNearest:
			for i, x := range xs {
				v := vals[ip.nearest(x)]
				*fl.ptr(out[i]) = &v
			}
		case PolicyAngular:
			unwrapped := unwrap(vals, AngularPeriod)
			for i, x := range xs {
				v := wrap(ip.sample(unwrapped, x), AngularPeriod)
				*fl.ptr(out[i]) = &v
			}
		case PolicyLatitude:
			shifted := shiftUnwrap(vals, 90, LatitudePeriod, LatitudeThreshold)
			for i, x := range xs {
				v := wrap(ip.sample(shifted, x), LatitudePeriod) - 90
				*fl.ptr(out[i]) = &v
			}
		case PolicyLongitude:
			shifted := shiftUnwrap(vals, 180, LongitudePeriod, LongitudeThreshold)
			for i, x := range xs {
				v := wrap(ip.sample(shifted, x), LongitudePeriod) - 180
				*fl.ptr(out[i]) = &v
			}
		default:
			for i, x := range xs {
				v := ip.sample(vals, x)
				*fl.ptr(out[i]) = &v
			}
		}
	}

	for _, sf := range stringFields {
		for i, x := range xs {
			*sf.ptr(out[i]) = *sf.ptr(ip.frames[ip.nearest(x)])
		}
	}

	for i, x := range xs {
		n := ip.frames[ip.nearest(x)]
		out[i].Start = n.Start
		out[i].End = n.End
		out[i].Timestamp = ip.start.Add(time.Duration(x * float64(time.Second)))
	}
	return out
}

// gather collects a field across all source frames. ok is false when any
// frame lacks the field.
func (ip *Interpolator) gather(fl floatField) ([]float64, bool) {
	vals := make([]float64, len(ip.frames))
	for i, f := range ip.frames {
		p := *fl.ptr(f)
		if p == nil {
			return nil, false
		}
		vals[i] = *p
	}
	return vals, true
}

// segment locates the source interval used for target x: interior targets
// get their bracketing pair, targets outside the range get the first or
// last pair so the linear fit extrapolates.
func (ip *Interpolator) segment(x float64) int {
	i := sort.SearchFloat64s(ip.seconds, x)
	switch {
	case i <= 0:
		return 0
	case i >= len(ip.seconds):
		return len(ip.seconds) - 2
	default:
		return i - 1
	}
}

// sample evaluates the piecewise-linear fit of vals at x.
func (ip *Interpolator) sample(vals []float64, x float64) float64 {
	i := ip.segment(x)
	x0, x1 := ip.seconds[i], ip.seconds[i+1]
	if x1 == x0 {
		return vals[i]
	}
	w := (x - x0) / (x1 - x0)
	// exact passthrough at segment boundaries
	if w == 0 {
		return vals[i]
	}
	if w == 1 {
		return vals[i+1]
	}
	return vals[i] + (vals[i+1]-vals[i])*w
}

// nearest returns the index of the source frame closest in time to x.
// When x sits exactly on the far end of a segment the far frame wins,
// preserving the weight-1 boundary convention.
func (ip *Interpolator) nearest(x float64) int {
	i := ip.segment(x)
	if x-ip.seconds[i] > ip.seconds[i+1]-x {
		return i + 1
	}
	if x >= ip.seconds[i+1] {
		return i + 1
	}
	return i
}

// unwrap removes period discontinuities from a sequence, shifting each
// value by whole periods so successive differences stay within half a
// period (the numpy unwrap behavior).
func unwrap(vals []float64, period float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	shift := 0.0
	for i := 1; i < len(out); i++ {
		d := vals[i] - vals[i-1]
		if d > period/2 {
			shift -= period
		} else if d < -period/2 {
			shift += period
		}
		out[i] = vals[i] + shift
	}
	return out
}

// shiftUnwrap moves vals into the [0, period) domain by adding offset,
// then removes wrap discontinuities, but only where successive samples
// sit on opposite sides of the threshold bands. Elsewhere the sequence is
// left alone so ordinary flight paths interpolate linearly.
func shiftUnwrap(vals []float64, offset, period, threshold float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v + offset
	}
	shift := 0.0
	for i := 1; i < len(out); i++ {
		prev := wrap(vals[i-1]+offset, period)
		cur := wrap(vals[i]+offset, period)
		if prev > period-threshold && cur < threshold {
			shift += period
		} else if cur > period-threshold && prev < threshold {
			shift -= period
		}
		out[i] += shift
	}
	return out
}
