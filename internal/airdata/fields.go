package airdata

import (
	"strings"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

// cell is one parsed CSV value: nil, float64, time.Time, or string.
type cell any

// setter stores a parsed cell into its frame field.
type setter func(*telemetry.Frame, cell)

func setFloat(ptr func(*telemetry.Frame) **float64) setter {
	return func(f *telemetry.Frame, c cell) {
		if v, ok := c.(float64); ok {
			*ptr(f) = &v
		}
	}
}

func setString(ptr func(*telemetry.Frame) *string) setter {
	return func(f *telemetry.Frame, c cell) {
		if s, ok := c.(string); ok {
			*ptr(f) = s
		}
	}
}

func setTimestamp(f *telemetry.Frame, c cell) {
	if t, ok := c.(time.Time); ok {
		f.Timestamp = t
	}
}

// fieldSetters maps lowercase column names (units stripped) to frame
// fields. Columns absent from the table are ignored, which keeps the
// parser tolerant of vendor additions.
var fieldSetters = map[string]setter{
	"time":     setFloat(func(f *telemetry.Frame) **float64 { return &f.TimeMS }),
	"datetime": setTimestamp,
	"latitude": setFloat(func(f *telemetry.Frame) **float64 { return &f.Latitude }),
	"longitude": setFloat(func(f *telemetry.Frame) **float64 {
		return &f.Longitude
	}),
	"height_above_takeoff":                  setFloat(func(f *telemetry.Frame) **float64 { return &f.HeightAboveTakeoff }),
	"height_above_ground_at_drone_location": setFloat(func(f *telemetry.Frame) **float64 { return &f.HeightAboveGround }),
	"ground_elevation_at_drone_location":    setFloat(func(f *telemetry.Frame) **float64 { return &f.GroundElevation }),
	"altitude_above_sealevel":               setFloat(func(f *telemetry.Frame) **float64 { return &f.AltitudeAboveSeaLevel }),
	"height_sonar":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.HeightSonar }),
	"speed":                                 setFloat(func(f *telemetry.Frame) **float64 { return &f.Speed }),
	"distance":                              setFloat(func(f *telemetry.Frame) **float64 { return &f.Distance }),
	"mileage":                               setFloat(func(f *telemetry.Frame) **float64 { return &f.Mileage }),
	"satellites":                            setFloat(func(f *telemetry.Frame) **float64 { return &f.Satellites }),
	"gpslevel":                              setFloat(func(f *telemetry.Frame) **float64 { return &f.GPSLevel }),
	"voltage":                               setFloat(func(f *telemetry.Frame) **float64 { return &f.Voltage }),
	"max_altitude":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.MaxAltitude }),
	"max_ascent":                            setFloat(func(f *telemetry.Frame) **float64 { return &f.MaxAscent }),
	"max_speed":                             setFloat(func(f *telemetry.Frame) **float64 { return &f.MaxSpeed }),
	"max_distance":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.MaxDistance }),
	"xspeed":                                setFloat(func(f *telemetry.Frame) **float64 { return &f.XSpeed }),
	"yspeed":                                setFloat(func(f *telemetry.Frame) **float64 { return &f.YSpeed }),
	"zspeed":                                setFloat(func(f *telemetry.Frame) **float64 { return &f.ZSpeed }),
	"compass_heading":                       setFloat(func(f *telemetry.Frame) **float64 { return &f.CompassHeading }),
	"pitch":                                 setFloat(func(f *telemetry.Frame) **float64 { return &f.Pitch }),
	"roll":                                  setFloat(func(f *telemetry.Frame) **float64 { return &f.Roll }),
	"isphoto":                               setFloat(func(f *telemetry.Frame) **float64 { return &f.IsPhoto }),
	"isvideo":                               setFloat(func(f *telemetry.Frame) **float64 { return &f.IsVideo }),
	"rc_elevator":                           setFloat(func(f *telemetry.Frame) **float64 { return &f.RCElevator }),
	"rc_aileron":                            setFloat(func(f *telemetry.Frame) **float64 { return &f.RCAileron }),
	"rc_throttle":                           setFloat(func(f *telemetry.Frame) **float64 { return &f.RCThrottle }),
	"rc_rudder":                             setFloat(func(f *telemetry.Frame) **float64 { return &f.RCRudder }),
	"gimbal_heading":                        setFloat(func(f *telemetry.Frame) **float64 { return &f.GimbalHeading }),
	"gimbal_pitch":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.GimbalPitch }),
	"gimbal_roll":                           setFloat(func(f *telemetry.Frame) **float64 { return &f.GimbalRoll }),
	"battery_percent":                       setFloat(func(f *telemetry.Frame) **float64 { return &f.BatteryPercent }),
	"voltagecell1":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell1 }),
	"voltagecell2":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell2 }),
	"voltagecell3":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell3 }),
	"voltagecell4":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell4 }),
	"voltagecell5":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell5 }),
	"voltagecell6":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.VoltageCell6 }),
	"current":                               setFloat(func(f *telemetry.Frame) **float64 { return &f.Current }),
	"battery_temperature":                   setFloat(func(f *telemetry.Frame) **float64 { return &f.BatteryTemperature }),
	"altitude":                              setFloat(func(f *telemetry.Frame) **float64 { return &f.Altitude }),
	"ascent":                                setFloat(func(f *telemetry.Frame) **float64 { return &f.Ascent }),
	"flycstateraw":                          setFloat(func(f *telemetry.Frame) **float64 { return &f.FlycStateRaw }),
	"flycstate":                             setString(func(f *telemetry.Frame) *string { return &f.FlycState }),
	"message":                               setString(func(f *telemetry.Frame) *string { return &f.Message }),
}

// lookupSetter resolves a stripped column name to its setter, or nil for
// unknown columns.
func lookupSetter(name string) setter {
	return fieldSetters[strings.ToLower(name)]
}
