// Package srt parses DJI subtitle (SRT) telemetry tracks. Each caption
// block carries per-frame exposure and flight metadata which is mapped
// onto telemetry frames.
package srt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

// ErrMalformedBlock reports a caption block the parser cannot decode.
var ErrMalformedBlock = errors.New("srt: malformed caption block")

var (
	bracketGroup = regexp.MustCompile(`\[[^\]]*\]`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// block-scan states, advanced line by line
type scanState int

const (
	wantIndex scanState = iota
	wantTimecode
	wantHeader
	wantTimestamp
	wantMeta
)

// Parser reads DJI SRT caption tracks. The zero value is ready to use.
type Parser struct{}

var _ telemetry.Source = (*Parser)(nil)

// ParseFunc streams one frame per caption block to fn. A trailing block
// cut off before its closing </font> tag is dropped, matching what DJI
// recorders produce when a flight ends mid-caption.
func (p *Parser) ParseFunc(r io.Reader, opts telemetry.ParseOptions, fn func(*telemetry.Frame) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	state := wantIndex
	var frame *telemetry.Frame
	var meta strings.Builder
	seen := 0
	yielded := 0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch state {
		case wantIndex:
			idx, err := strconv.Atoi(line)
			if err != nil {
				return fmt.Errorf("%w: caption index %q", ErrMalformedBlock, line)
			}
			frame = &telemetry.Frame{ID: idx - 1}
			meta.Reset()
			seen++
			state = wantTimecode

		case wantTimecode:
			start, end, err := parseTimecode(line)
			if err != nil {
				return err
			}
			frame.Start, frame.End = start, end
			state = wantHeader

		case wantHeader:
			if !strings.Contains(line, "<font size=") {
				return fmt.Errorf("%w: expected font header, got %q", ErrMalformedBlock, line)
			}
			if err := parseHeader(line, frame); err != nil {
				return err
			}
			state = wantTimestamp

		case wantTimestamp:
			ts, err := parseTimestamp(line)
			if err != nil {
				return err
			}
			frame.Timestamp = ts
			state = wantMeta

		case wantMeta:
			meta.WriteString(line)
			meta.WriteByte(' ')
			if !strings.Contains(line, "</font>") {
				continue
			}
			parseMeta(meta.String(), frame)
			state = wantIndex
			if seen <= opts.Skip {
				continue
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
	if err := sc.Err(); err != nil {
		return fmt.Errorf("srt: scan: %w", err)
	}
	return nil
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

// ParseFile opens and parses a caption file.
func (p *Parser) ParseFile(path string, opts telemetry.ParseOptions) ([]*telemetry.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("srt: open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, opts)
}

// parseTimecode decodes "HH:MM:SS,mmm --> HH:MM:SS,mmm" into offsets
// from video start.
func parseTimecode(line string) (start, end time.Duration, err error) {
	lhs, rhs, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("%w: timecode %q", ErrMalformedBlock, line)
	}
	if start, err = parseOffset(strings.TrimSpace(lhs)); err != nil {
		return 0, 0, err
	}
	if end, err = parseOffset(strings.TrimSpace(rhs)); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseOffset(s string) (time.Duration, error) {
	clock, millis, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedBlock, s)
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedBlock, s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	ms, err4 := strconv.Atoi(millis)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedBlock, s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond, nil
}

// parseHeader decodes the "<font size=...>FrameCnt: n, DiffTime: 33ms"
// line of comma separated key/value pairs.
func parseHeader(line string, frame *telemetry.Frame) error {
	if i := strings.Index(line, ">"); i >= 0 {
		line = line[i+1:]
	}
	if i := strings.Index(line, "FrameCnt"); i >= 0 {
		line = line[i:]
	} else {
		return fmt.Errorf("%w: font header without FrameCnt: %q", ErrMalformedBlock, line)
	}
	for _, pair := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		assign(frame, key, value)
	}
	return nil
}

// parseTimestamp decodes the caption datetime line. The value is clipped
// to millisecond precision and the DJI comma separator is normalized to
// a dot.
func parseTimestamp(line string) (time.Time, error) {
	if len(line) > 23 {
		line = line[:23]
	}
	line = strings.Replace(line, ",", ".", 1)
	for _, layout := range []string{"2006-01-02 15:04:05.000", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, line); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedBlock, line)
}

// parseMeta decodes the accumulated bracket groups of a caption body,
// e.g. "[iso : 100] [latitude: 47.07] [rel_alt: 10.1 abs_alt: 400.5]".
func parseMeta(body string, frame *telemetry.Frame) {
	body = strings.ReplaceAll(body, "</font>", "")
	// M30 firmware writes "]," between groups
	body = strings.ReplaceAll(body, "],", "]")

	for _, group := range bracketGroup.FindAllString(body, -1) {
		g := strings.TrimSuffix(strings.TrimPrefix(group, "["), "]")
		g = strings.TrimSpace(spaceRun.ReplaceAllString(g, " "))
		colons := strings.Count(g, ":")
		switch {
		case colons == 1:
			key, value, _ := strings.Cut(g, ":")
			assign(frame, key, value)
		case colons > 1 && strings.Contains(g, ","):
			parseNestedGroup(g, frame)
		case colons > 1:
			// whitespace separated pairs, e.g. "rel_alt: 10.1 abs_alt: 400.5"
			fields := strings.Fields(strings.ReplaceAll(g, ": ", " "))
			for i := 0; i+1 < len(fields); i += 2 {
				assign(frame, fields[i], fields[i+1])
			}
		}
	}
}

// parseNestedGroup decodes comma separated pairs that may share a base
// prefix, e.g. "drone: speedx: 0.1, speedy: 0.2" becomes drone_speedx
// and drone_speedy.
func parseNestedGroup(g string, frame *telemetry.Frame) {
	parts := strings.Split(g, ",")
	base := ""
	if len(parts) > 0 && strings.Count(parts[0], ":") > 1 {
		prefix, rest, _ := strings.Cut(parts[0], ":")
		base = strings.TrimSpace(prefix)
		parts[0] = rest
	}
	for _, part := range parts {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if base != "" {
			key = base + "_" + key
		}
		assign(frame, key, value)
	}
}

// assign routes a key/value pair to its frame field; unknown keys are
// ignored.
func assign(frame *telemetry.Frame, key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if set, ok := fieldSetters[key]; ok {
		set(frame, strings.TrimSpace(value))
	}
}

// parseNumber accepts plain decimal numbers with an optional sign.
func parseNumber(s string) (float64, bool) {
	stripped := strings.NewReplacer(".", "", "-", "", "+", "").Replace(s)
	if stripped == "" {
		return 0, false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
