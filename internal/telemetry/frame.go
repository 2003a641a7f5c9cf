// Package telemetry defines the common frame model shared by the
// flight-log and subtitle telemetry parsers, plus the field-wise
// interpolation engine that resamples frame sequences in time.
package telemetry

import (
	"errors"
	"time"
)

// ErrNoTimestamp reports a frame handed to the interpolator without an
// absolute timestamp.
var ErrNoTimestamp = errors.New("telemetry: frame missing timestamp")

// Frame is one timestamped sample of drone telemetry. The flight-log and
// subtitle streams populate disjoint-but-overlapping subsets of the
// fields, so every optional value is a pointer; nil means the source did
// not carry it. Frames are value snapshots: parsers and the interpolator
// always produce new frames, the only post-construction write is the
// one-time synchronization pass over Timestamp.
type Frame struct {
	ID        int
	Timestamp time.Time // absolute, timezone-aware once synchronized

	// Flight-log fields (AirData CSV)
	TimeMS                *float64 // milliseconds since log start
	Latitude              *float64
	Longitude             *float64
	HeightAboveTakeoff    *float64
	HeightAboveGround     *float64
	GroundElevation       *float64
	AltitudeAboveSeaLevel *float64
	HeightSonar           *float64
	Speed                 *float64
	Distance              *float64
	Mileage               *float64
	Satellites            *float64
	GPSLevel              *float64
	Voltage               *float64
	MaxAltitude           *float64
	MaxAscent             *float64
	MaxSpeed              *float64
	MaxDistance           *float64
	XSpeed                *float64
	YSpeed                *float64
	ZSpeed                *float64
	CompassHeading        *float64
	Pitch                 *float64
	Roll                  *float64
	IsPhoto               *float64 // 0/1 flag
	IsVideo               *float64 // 0/1 flag
	RCElevator            *float64
	RCAileron             *float64
	RCThrottle            *float64
	RCRudder              *float64
	GimbalHeading         *float64
	GimbalPitch           *float64
	GimbalRoll            *float64
	BatteryPercent        *float64
	VoltageCell1          *float64
	VoltageCell2          *float64
	VoltageCell3          *float64
	VoltageCell4          *float64
	VoltageCell5          *float64
	VoltageCell6          *float64
	Current               *float64
	BatteryTemperature    *float64
	Altitude              *float64
	Ascent                *float64
	FlycStateRaw          *float64
	FlycState             string
	Message               string

	// Subtitle fields (DJI SRT captions)
	Start       time.Duration // caption start offset within the video
	End         time.Duration // caption end offset within the video
	FrameCount  *float64
	DiffTime    string
	ISO         *float64
	Shutter     string
	FNum        *float64
	EV          *float64
	FocalLength *float64
	DZoom       *float64
	DZoomRatio  *float64
	RelAlt      *float64
	AbsAlt      *float64
	DroneSpeedX *float64
	DroneSpeedY *float64
	DroneSpeedZ *float64
	DroneYaw    *float64
	DronePitch  *float64
	DroneRoll   *float64
	GBYaw       *float64
	GBPitch     *float64
	GBRoll      *float64
	AEMeterMode *float64
	Delta       *float64
	ColorMode   string
	CT          *float64
}

// Policy selects how a numeric field is interpolated between frames.
type Policy int

const (
	// PolicyLinear interpolates and extrapolates against elapsed seconds.
	PolicyLinear Policy = iota
	// PolicyAngular treats the field as an angle wrapping at 360 degrees.
	PolicyAngular
	// PolicyLatitude applies the pole-proximity shortcut when the
	// endpoints straddle the +/-45 degree bands.
	PolicyLatitude
	// PolicyLongitude applies the antimeridian shortcut when the
	// endpoints straddle the +/-90 degree bands.
	PolicyLongitude
	// PolicyNearest carries the nearer-in-time frame's value unchanged;
	// used for 0/1 flags that must never blend.
	PolicyNearest
)

// Wraparound parameters. These thresholds are heuristics tuned to typical
// survey flight paths, not general great-circle interpolation; they are
// variables so a deployment closer to a pole can widen them.
var (
	AngularPeriod      = 360.0
	LatitudePeriod     = 180.0
	LatitudeThreshold  = 45.0
	LongitudePeriod    = 360.0
	LongitudeThreshold = 90.0
)

// floatField binds a frame field to its interpolation policy. The accessor
// returns the address of the pointer field so the engine can read and
// write without reflection.
type floatField struct {
	name   string
	policy Policy
	ptr    func(*Frame) **float64
}

// floatFields is the full static field list of the frame model. Order is
// stable; the engine walks it field by field.
var floatFields = []floatField{
	{"time", PolicyLinear, func(f *Frame) **float64 { return &f.TimeMS }},
	{"latitude", PolicyLatitude, func(f *Frame) **float64 { return &f.Latitude }},
	{"longitude", PolicyLongitude, func(f *Frame) **float64 { return &f.Longitude }},
	{"height_above_takeoff", PolicyLinear, func(f *Frame) **float64 { return &f.HeightAboveTakeoff }},
	{"height_above_ground", PolicyLinear, func(f *Frame) **float64 { return &f.HeightAboveGround }},
	{"ground_elevation", PolicyLinear, func(f *Frame) **float64 { return &f.GroundElevation }},
	{"altitude_above_sea_level", PolicyLinear, func(f *Frame) **float64 { return &f.AltitudeAboveSeaLevel }},
	{"height_sonar", PolicyLinear, func(f *Frame) **float64 { return &f.HeightSonar }},
	{"speed", PolicyLinear, func(f *Frame) **float64 { return &f.Speed }},
	{"distance", PolicyLinear, func(f *Frame) **float64 { return &f.Distance }},
	{"mileage", PolicyLinear, func(f *Frame) **float64 { return &f.Mileage }},
	{"satellites", PolicyLinear, func(f *Frame) **float64 { return &f.Satellites }},
	{"gpslevel", PolicyLinear, func(f *Frame) **float64 { return &f.GPSLevel }},
	{"voltage", PolicyLinear, func(f *Frame) **float64 { return &f.Voltage }},
	{"max_altitude", PolicyLinear, func(f *Frame) **float64 { return &f.MaxAltitude }},
	{"max_ascent", PolicyLinear, func(f *Frame) **float64 { return &f.MaxAscent }},
	{"max_speed", PolicyLinear, func(f *Frame) **float64 { return &f.MaxSpeed }},
	{"max_distance", PolicyLinear, func(f *Frame) **float64 { return &f.MaxDistance }},
	{"xspeed", PolicyLinear, func(f *Frame) **float64 { return &f.XSpeed }},
	{"yspeed", PolicyLinear, func(f *Frame) **float64 { return &f.YSpeed }},
	{"zspeed", PolicyLinear, func(f *Frame) **float64 { return &f.ZSpeed }},
	{"compass_heading", PolicyAngular, func(f *Frame) **float64 { return &f.CompassHeading }},
	{"pitch", PolicyAngular, func(f *Frame) **float64 { return &f.Pitch }},
	{"roll", PolicyAngular, func(f *Frame) **float64 { return &f.Roll }},
	{"isPhoto", PolicyNearest, func(f *Frame) **float64 { return &f.IsPhoto }},
	{"isVideo", PolicyNearest, func(f *Frame) **float64 { return &f.IsVideo }},
	{"rc_elevator", PolicyLinear, func(f *Frame) **float64 { return &f.RCElevator }},
	{"rc_aileron", PolicyLinear, func(f *Frame) **float64 { return &f.RCAileron }},
	{"rc_throttle", PolicyLinear, func(f *Frame) **float64 { return &f.RCThrottle }},
	{"rc_rudder", PolicyLinear, func(f *Frame) **float64 { return &f.RCRudder }},
	{"gimbal_heading", PolicyAngular, func(f *Frame) **float64 { return &f.GimbalHeading }},
	{"gimbal_pitch", PolicyAngular, func(f *Frame) **float64 { return &f.GimbalPitch }},
	{"gimbal_roll", PolicyAngular, func(f *Frame) **float64 { return &f.GimbalRoll }},
	{"battery_percent", PolicyLinear, func(f *Frame) **float64 { return &f.BatteryPercent }},
	{"voltageCell1", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell1 }},
	{"voltageCell2", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell2 }},
	{"voltageCell3", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell3 }},
	{"voltageCell4", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell4 }},
	{"voltageCell5", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell5 }},
	{"voltageCell6", PolicyLinear, func(f *Frame) **float64 { return &f.VoltageCell6 }},
	{"current", PolicyLinear, func(f *Frame) **float64 { return &f.Current }},
	{"battery_temperature", PolicyLinear, func(f *Frame) **float64 { return &f.BatteryTemperature }},
	{"altitude", PolicyLinear, func(f *Frame) **float64 { return &f.Altitude }},
	{"ascent", PolicyLinear, func(f *Frame) **float64 { return &f.Ascent }},
	{"flycStateRaw", PolicyLinear, func(f *Frame) **float64 { return &f.FlycStateRaw }},
	{"framecnt", PolicyLinear, func(f *Frame) **float64 { return &f.FrameCount }},
	{"iso", PolicyLinear, func(f *Frame) **float64 { return &f.ISO }},
	{"fnum", PolicyLinear, func(f *Frame) **float64 { return &f.FNum }},
	{"ev", PolicyLinear, func(f *Frame) **float64 { return &f.EV }},
	{"focal_len", PolicyLinear, func(f *Frame) **float64 { return &f.FocalLength }},
	{"dzoom", PolicyLinear, func(f *Frame) **float64 { return &f.DZoom }},
	{"dzoom_ratio", PolicyLinear, func(f *Frame) **float64 { return &f.DZoomRatio }},
	{"rel_alt", PolicyLinear, func(f *Frame) **float64 { return &f.RelAlt }},
	{"abs_alt", PolicyLinear, func(f *Frame) **float64 { return &f.AbsAlt }},
	{"drone_speedx", PolicyLinear, func(f *Frame) **float64 { return &f.DroneSpeedX }},
	{"drone_speedy", PolicyLinear, func(f *Frame) **float64 { return &f.DroneSpeedY }},
	{"drone_speedz", PolicyLinear, func(f *Frame) **float64 { return &f.DroneSpeedZ }},
	{"drone_yaw", PolicyAngular, func(f *Frame) **float64 { return &f.DroneYaw }},
	{"drone_pitch", PolicyAngular, func(f *Frame) **float64 { return &f.DronePitch }},
	{"drone_roll", PolicyAngular, func(f *Frame) **float64 { return &f.DroneRoll }},
	{"gb_yaw", PolicyAngular, func(f *Frame) **float64 { return &f.GBYaw }},
	{"gb_pitch", PolicyAngular, func(f *Frame) **float64 { return &f.GBPitch }},
	{"gb_roll", PolicyAngular, func(f *Frame) **float64 { return &f.GBRoll }},
	{"ae_meter_md", PolicyLinear, func(f *Frame) **float64 { return &f.AEMeterMode }},
	{"delta", PolicyLinear, func(f *Frame) **float64 { return &f.Delta }},
	{"ct", PolicyLinear, func(f *Frame) **float64 { return &f.CT }},
}

// stringField binds a frame string field; strings always use the nearest
// frame's value.
type stringField struct {
	name string
	ptr  func(*Frame) *string
}

var stringFields = []stringField{
	{"flycState", func(f *Frame) *string { return &f.FlycState }},
	{"message", func(f *Frame) *string { return &f.Message }},
	{"difftime", func(f *Frame) *string { return &f.DiffTime }},
	{"shutter", func(f *Frame) *string { return &f.Shutter }},
	{"color_md", func(f *Frame) *string { return &f.ColorMode }},
}

// Clone returns a deep copy of the frame. Pointer fields are reallocated
// so the copy can be mutated without aliasing the source.
func (f *Frame) Clone() *Frame {
	out := *f
	for _, fl := range floatFields {
		src := *fl.ptr(f)
		if src != nil {
			v := *src
			*fl.ptr(&out) = &v
		}
	}
	return &out
}

// Float returns a pointer to a copy of v, for building frames literally.
func Float(v float64) *float64 { return &v }
