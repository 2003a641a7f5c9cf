// Package flightdb archives extraction runs in a local sqlite database
// so repeated conversions of the same flight can be inspected and
// compared later.
package flightdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bambi-eco/RARF/internal/telemetry"
)

type DB struct {
	*sql.DB
}

// New opens (or creates) a flight archive at path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("flightdb: open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			video_file TEXT,
			airdata_file TEXT,
			flight_start TIMESTAMP,
			flight_end TIMESTAMP,
			clock_offset_seconds DOUBLE,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS frames (
			session_id TEXT,
			frame_id INTEGER,
			timestamp TIMESTAMP,
			latitude DOUBLE,
			longitude DOUBLE,
			altitude DOUBLE,
			compass_heading DOUBLE,
			gimbal_pitch DOUBLE,
			is_video INTEGER,
			is_photo INTEGER,
			PRIMARY KEY(session_id, frame_id),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS poses (
			session_id TEXT,
			image_id INTEGER,
			name TEXT,
			qw DOUBLE, qx DOUBLE, qy DOUBLE, qz DOUBLE,
			tx DOUBLE, ty DOUBLE, tz DOUBLE,
			camera_id INTEGER,
			PRIMARY KEY(session_id, image_id),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("flightdb: create schema: %w", err)
	}

	return &DB{db}, nil
}

// Session describes one archived extraction run.
type Session struct {
	ID          string
	VideoFile   string
	AirdataFile string
	FlightStart time.Time
	FlightEnd   time.Time
	ClockOffset float64
}

// CreateSession registers a new extraction run and returns its id.
func (db *DB) CreateSession(videoFile, airdataFile string, start, end time.Time, clockOffset float64) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		"INSERT INTO sessions (session_id, video_file, airdata_file, flight_start, flight_end, clock_offset_seconds) VALUES (?, ?, ?, ?, ?, ?)",
		id, videoFile, airdataFile, start, end, clockOffset)
	if err != nil {
		return "", fmt.Errorf("flightdb: create session: %w", err)
	}
	return id, nil
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func flag(p *float64) int {
	if p != nil && *p > 0 {
		return 1
	}
	return 0
}

// RecordFrames archives the synchronized flight-log frames of a session
// in one transaction.
func (db *DB) RecordFrames(sessionID string, frames []*telemetry.Frame) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("flightdb: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO frames (session_id, frame_id, timestamp, latitude, longitude, altitude, compass_heading, gimbal_pitch, is_video, is_photo) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("flightdb: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range frames {
		_, err := stmt.Exec(sessionID, f.ID, f.Timestamp,
			nullable(f.Latitude), nullable(f.Longitude), nullable(f.Altitude),
			nullable(f.CompassHeading), nullable(f.GimbalPitch),
			flag(f.IsVideo), flag(f.IsPhoto))
		if err != nil {
			return fmt.Errorf("flightdb: insert frame %d: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flightdb: commit frames: %w", err)
	}
	return nil
}

// Pose is one archived camera pose.
type Pose struct {
	ImageID  uint32
	Name     string
	Quat     [4]float64 // w, x, y, z
	Trans    [3]float64
	CameraID uint32
}

// RecordPoses archives the computed camera poses of a session in one
// transaction.
func (db *DB) RecordPoses(sessionID string, poses []Pose) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("flightdb: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO poses (session_id, image_id, name, qw, qx, qy, qz, tx, ty, tz, camera_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("flightdb: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range poses {
		_, err := stmt.Exec(sessionID, p.ImageID, p.Name,
			p.Quat[0], p.Quat[1], p.Quat[2], p.Quat[3],
			p.Trans[0], p.Trans[1], p.Trans[2], p.CameraID)
		if err != nil {
			return fmt.Errorf("flightdb: insert pose %d: %w", p.ImageID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flightdb: commit poses: %w", err)
	}
	return nil
}

// Sessions lists archived runs, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		"SELECT session_id, video_file, airdata_file, flight_start, flight_end, clock_offset_seconds FROM sessions ORDER BY created DESC")
	if err != nil {
		return nil, fmt.Errorf("flightdb: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.VideoFile, &s.AirdataFile, &s.FlightStart, &s.FlightEnd, &s.ClockOffset); err != nil {
			return nil, fmt.Errorf("flightdb: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Poses returns the archived poses of a session ordered by image id.
func (db *DB) Poses(sessionID string) ([]Pose, error) {
	rows, err := db.Query(
		"SELECT image_id, name, qw, qx, qy, qz, tx, ty, tz, camera_id FROM poses WHERE session_id = ? ORDER BY image_id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("flightdb: query poses: %w", err)
	}
	defer rows.Close()

	var poses []Pose
	for rows.Next() {
		var p Pose
		if err := rows.Scan(&p.ImageID, &p.Name,
			&p.Quat[0], &p.Quat[1], &p.Quat[2], &p.Quat[3],
			&p.Trans[0], &p.Trans[1], &p.Trans[2], &p.CameraID); err != nil {
			return nil, fmt.Errorf("flightdb: scan pose: %w", err)
		}
		poses = append(poses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return poses, nil
}

// FrameCount returns the number of archived frames of a session.
func (db *DB) FrameCount(sessionID string) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM frames WHERE session_id = ?", sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("flightdb: count frames: %w", err)
	}
	return n, nil
}
