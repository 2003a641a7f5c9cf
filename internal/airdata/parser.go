// Package airdata parses AirData flight-log CSV exports into telemetry
// frames, normalizing imperial units at parse time.
package airdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
	"github.com/bambi-eco/RARF/internal/units"
)

// Conversion factors applied during parsing, re-exported for callers
// that reason about raw column values.
const (
	FeetPerMeter = units.FeetPerMeter
	MPHToKMH     = units.MPHToKMH
)

// timestampLayout is the AirData datetime format; values are always UTC.
const timestampLayout = "2006-01-02 15:04:05"

// ErrMalformedHeader reports a flight log without a usable header row.
var ErrMalformedHeader = errors.New("airdata: missing or malformed header row")

// Parser reads AirData CSV flight logs. The zero value uses the standard
// comma delimiter.
type Parser struct {
	// Comma is the column delimiter; 0 means ','.
	Comma rune
}

var _ telemetry.Source = (*Parser)(nil)

// ParseFunc streams one frame per data row to fn. Column units in
// parentheses are stripped from the header and used to normalize values:
// feet become meters, mph becomes km/h. Cells are typed by shape: empty
// cells stay absent, digit-like cells become numbers, datetime cells
// become UTC timestamps, anything else is a string.
func (p *Parser) ParseFunc(r io.Reader, opts telemetry.ParseOptions, fn func(*telemetry.Frame) error) error {
	cr := csv.NewReader(r)
	if p.Comma != 0 {
		cr.Comma = p.Comma
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return ErrMalformedHeader
		}
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	// strip "(unit)" suffixes into the unit table
	names := make([]string, len(header))
	units := make([]string, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if j := strings.Index(name, "("); j >= 0 {
			unit := strings.TrimSuffix(name[j+1:], ")")
			units[i] = strings.ToLower(strings.TrimSpace(unit))
			name = strings.TrimSpace(name[:j])
		}
		names[i] = name
	}

	frameID := -1
	yielded := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("airdata: read row: %w", err)
		}
		frameID++
		if frameID < opts.Skip {
			continue
		}

		frame := &telemetry.Frame{ID: frameID}
		for i, raw := range row {
			if i >= len(names) {
				continue
			}
			set := lookupSetter(names[i])
			if set == nil {
				continue
			}
			set(frame, parseCell(raw, units[i]))
		}

		if err := fn(frame); err != nil {
			if errors.Is(err, telemetry.ErrStop) {
				return nil
			}
			return err
		}
		yielded++
		if opts.Limit > 0 && yielded >= opts.Limit {
			return nil
		}
	}
}

// Parse collects all frames from r.
func (p *Parser) Parse(r io.Reader, opts telemetry.ParseOptions) ([]*telemetry.Frame, error) {
	var frames []*telemetry.Frame
	err := p.ParseFunc(r, opts, func(f *telemetry.Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// ParseFile opens and parses a flight-log file.
func (p *Parser) ParseFile(path string, opts telemetry.ParseOptions) ([]*telemetry.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("airdata: open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, opts)
}

// parseCell types a raw cell and applies unit normalization to numeric
// values.
func parseCell(raw, unit string) cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if isDigitLike(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return units.Normalize(v, unit)
		}
	}
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t.UTC()
	}
	return s
}

// isDigitLike reports whether s looks numeric once '.', '-' and 'e' are
// ignored: at least one digit and nothing else.
func isDigitLike(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == '-' || r == 'e':
		default:
			return false
		}
	}
	return digits > 0
}
