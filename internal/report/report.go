// Package report renders post-run summaries of a flight: a ground-track
// plot and an interactive altitude/speed profile.
package report

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bambi-eco/RARF/internal/geo"
	"github.com/bambi-eco/RARF/internal/telemetry"
)

// ErrNoPositions reports a flight log without any usable positions.
var ErrNoPositions = errors.New("report: no positions in flight log")

// GroundTrack renders the projected flight path as a PNG. Positions are
// projected into local metric coordinates relative to the first fix so
// the axes read as meters flown.
func GroundTrack(frames []*telemetry.Frame, path string) error {
	var pts plotter.XYs
	var originE, originN float64
	for _, f := range frames {
		if f.Latitude == nil || f.Longitude == nil {
			continue
		}
		e, n := geo.DefaultProjector.Project(*f.Latitude, *f.Longitude)
		if len(pts) == 0 {
			originE, originN = e, n
		}
		pts = append(pts, plotter.XY{X: e - originE, Y: n - originN})
	}
	if len(pts) == 0 {
		return ErrNoPositions
	}

	p := plot.New()
	p.Title.Text = "Ground Track"
	p.X.Label.Text = "East (m)"
	p.Y.Label.Text = "North (m)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("report: build track line: %w", err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

// FlightProfile renders altitude and speed over flight time as an
// interactive HTML chart.
func FlightProfile(frames []*telemetry.Frame, path string) error {
	var labels []string
	var altitude, speed []opts.LineData

	first := -1
	for i, f := range frames {
		if !f.Timestamp.IsZero() {
			first = i
			break
		}
	}
	if first < 0 {
		return ErrNoPositions
	}
	base := frames[first].Timestamp

	for _, f := range frames {
		if f.Timestamp.IsZero() {
			continue
		}
		labels = append(labels, fmt.Sprintf("%.1fs", f.Timestamp.Sub(base).Seconds()))
		if f.Altitude != nil {
			altitude = append(altitude, opts.LineData{Value: *f.Altitude})
		} else {
			altitude = append(altitude, opts.LineData{Value: nil})
		}
		if f.Speed != nil {
			speed = append(speed, opts.LineData{Value: *f.Speed})
		} else {
			speed = append(speed, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Flight Profile", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Flight Profile", Subtitle: fmt.Sprintf("%d samples", len(labels))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Flight time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Altitude (m) / Speed (km/h)"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("altitude", altitude)
	line.AddSeries("speed", speed)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return fmt.Errorf("report: render profile: %w", err)
	}
	return nil
}
