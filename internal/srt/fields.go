package srt

import "github.com/bambi-eco/RARF/internal/telemetry"

// The setter table mirrors the airdata one; SRT captions carry a
// different vocabulary but land in the same frame type.
type setter func(*telemetry.Frame, string)

func floatSetter(ptr func(*telemetry.Frame) **float64) setter {
	return func(f *telemetry.Frame, raw string) {
		if v, ok := parseNumber(raw); ok {
			*ptr(f) = &v
		}
	}
}

func stringSetter(ptr func(*telemetry.Frame) *string) setter {
	return func(f *telemetry.Frame, raw string) { *ptr(f) = raw }
}

// fieldSetters maps lowercase caption keys to frame fields. The
// "longtitude" entry covers the DJI M2EA typo.
var fieldSetters = map[string]setter{
	"framecnt":     floatSetter(func(f *telemetry.Frame) **float64 { return &f.FrameCount }),
	"difftime":     stringSetter(func(f *telemetry.Frame) *string { return &f.DiffTime }),
	"iso":          floatSetter(func(f *telemetry.Frame) **float64 { return &f.ISO }),
	"shutter":      stringSetter(func(f *telemetry.Frame) *string { return &f.Shutter }),
	"fnum":         floatSetter(func(f *telemetry.Frame) **float64 { return &f.FNum }),
	"ev":           floatSetter(func(f *telemetry.Frame) **float64 { return &f.EV }),
	"focal_len":    floatSetter(func(f *telemetry.Frame) **float64 { return &f.FocalLength }),
	"dzoom":        floatSetter(func(f *telemetry.Frame) **float64 { return &f.DZoom }),
	"dzoom_ratio":  floatSetter(func(f *telemetry.Frame) **float64 { return &f.DZoomRatio }),
	"latitude":     floatSetter(func(f *telemetry.Frame) **float64 { return &f.Latitude }),
	"longitude":    floatSetter(func(f *telemetry.Frame) **float64 { return &f.Longitude }),
	"longtitude":   floatSetter(func(f *telemetry.Frame) **float64 { return &f.Longitude }),
	"rel_alt":      floatSetter(func(f *telemetry.Frame) **float64 { return &f.RelAlt }),
	"abs_alt":      floatSetter(func(f *telemetry.Frame) **float64 { return &f.AbsAlt }),
	"altitude":     floatSetter(func(f *telemetry.Frame) **float64 { return &f.Altitude }),
	"drone_speedx": floatSetter(func(f *telemetry.Frame) **float64 { return &f.DroneSpeedX }),
	"drone_speedy": floatSetter(func(f *telemetry.Frame) **float64 { return &f.DroneSpeedY }),
	"drone_speedz": floatSetter(func(f *telemetry.Frame) **float64 { return &f.DroneSpeedZ }),
	"drone_yaw":    floatSetter(func(f *telemetry.Frame) **float64 { return &f.DroneYaw }),
	"drone_pitch":  floatSetter(func(f *telemetry.Frame) **float64 { return &f.DronePitch }),
	"drone_roll":   floatSetter(func(f *telemetry.Frame) **float64 { return &f.DroneRoll }),
	"gb_yaw":       floatSetter(func(f *telemetry.Frame) **float64 { return &f.GBYaw }),
	"gb_pitch":     floatSetter(func(f *telemetry.Frame) **float64 { return &f.GBPitch }),
	"gb_roll":      floatSetter(func(f *telemetry.Frame) **float64 { return &f.GBRoll }),
	"ae_meter_md":  floatSetter(func(f *telemetry.Frame) **float64 { return &f.AEMeterMode }),
	"delta":        floatSetter(func(f *telemetry.Frame) **float64 { return &f.Delta }),
	"color_md":     stringSetter(func(f *telemetry.Frame) *string { return &f.ColorMode }),
	"ct":           floatSetter(func(f *telemetry.Frame) **float64 { return &f.CT }),
}
