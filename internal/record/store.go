package record

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	sampling_rate INTEGER NOT NULL,
	left_channel  TEXT NOT NULL,
	right_channel TEXT NOT NULL,
	source        TEXT,
	noise_floor   REAL,
	ceiling       REAL,
	min_dwell     INTEGER
);

CREATE TABLE IF NOT EXISTS calibrations (
	session_id    TEXT PRIMARY KEY,
	policy        TEXT NOT NULL,
	result_json   TEXT NOT NULL,
	completed_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS cycles (
	session_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	ts            TEXT NOT NULL,
	alpha_l REAL NOT NULL, beta_l REAL NOT NULL, gamma_l REAL NOT NULL,
	alpha_r REAL NOT NULL, beta_r REAL NOT NULL, gamma_r REAL NOT NULL,
	alpha_l_rel REAL NOT NULL, beta_l_rel REAL NOT NULL, gamma_l_rel REAL NOT NULL,
	alpha_r_rel REAL NOT NULL, beta_r_rel REAL NOT NULL, gamma_r_rel REAL NOT NULL,
	marker        INTEGER,
	fault         TEXT,
	fault_side    TEXT,
	left_hand     TEXT,
	right_hand    TEXT,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// sessionSettingColumns were added after the first schema; older
// databases get them on open.
var sessionSettingColumns = map[string]string{
	"noise_floor": "REAL",
	"ceiling":     "REAL",
	"min_dwell":   "INTEGER",
}

func addMissingColumns(db *sql.DB, table string, columns map[string]string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for name, typ := range columns {
		if have[name] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, typ)); err != nil {
			return fmt.Errorf("add column %s: %w", name, err)
		}
	}
	return nil
}

// #endregion schema

// #region store-struct
// Store persists sessions, their calibration, and every cycle in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// OpenStore opens a SQLite database and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := addMissingColumns(db, "sessions", sessionSettingColumns); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region sessions
// BeginSession inserts the session row. Cycles may only be appended for
// sessions that exist.
func (s *Store) BeginSession(info SessionInfo) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, started_at, sampling_rate, left_channel, right_channel, source,
		                       noise_floor, ceiling, min_dwell)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.SessionID,
		info.StartedAt.UTC().Format(time.RFC3339Nano),
		info.SamplingRate,
		info.LeftChannel,
		info.RightChannel,
		nullIfEmpty(info.Source),
		nullIfZero(info.NoiseFloor),
		nullIfZero(info.Ceiling),
		nullIfZero(float64(info.MinDwell)),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Session loads one session row.
func (s *Store) Session(id string) (SessionInfo, error) {
	row := s.db.QueryRow(
		`SELECT session_id, started_at, sampling_rate, left_channel, right_channel, source,
		        noise_floor, ceiling, min_dwell
		 FROM sessions WHERE session_id = ?`, id,
	)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return SessionInfo{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return info, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT session_id, started_at, sampling_rate, left_channel, right_channel, source,
		        noise_floor, ceiling, min_dwell
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(r scanner) (SessionInfo, error) {
	var info SessionInfo
	var started string
	var source sql.NullString
	var floor, ceiling sql.NullFloat64
	var dwell sql.NullInt64
	if err := r.Scan(&info.SessionID, &started, &info.SamplingRate, &info.LeftChannel, &info.RightChannel, &source,
		&floor, &ceiling, &dwell); err != nil {
		return SessionInfo{}, err
	}
	info.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	info.Source = source.String
	info.NoiseFloor = floor.Float64
	info.Ceiling = ceiling.Float64
	info.MinDwell = int(dwell.Int64)
	return info, nil
}

// #endregion sessions

// #region calibration
// SaveCalibration stores the calibration result for a session, replacing
// any earlier one.
func (s *Store) SaveCalibration(sessionID string, res calibration.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO calibrations (session_id, policy, result_json, completed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   policy = excluded.policy, result_json = excluded.result_json, completed_at = excluded.completed_at`,
		sessionID, string(res.Policy), string(raw), res.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return nil
}

// Calibration loads the calibration result stored for a session.
func (s *Store) Calibration(sessionID string) (calibration.Result, error) {
	var raw string
	err := s.db.QueryRow(`SELECT result_json FROM calibrations WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return calibration.Result{}, fmt.Errorf("%w: no calibration for %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return calibration.Result{}, fmt.Errorf("get calibration: %w", err)
	}
	var res calibration.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return calibration.Result{}, fmt.Errorf("unmarshal calibration: %w", err)
	}
	return res, nil
}

// #endregion calibration

// #region cycles
// Append writes one cycle row. The store is a Sink.
func (s *Store) Append(rec CycleRecord) error {
	var marker any
	if rec.Marker > 0 {
		marker = rec.Marker
	}
	_, err := s.db.Exec(
		`INSERT INTO cycles (session_id, seq, ts,
		   alpha_l, beta_l, gamma_l, alpha_r, beta_r, gamma_r,
		   alpha_l_rel, beta_l_rel, gamma_l_rel, alpha_r_rel, beta_r_rel, gamma_r_rel,
		   marker, fault, fault_side, left_hand, right_hand)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Seq, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Left.Alpha, rec.Left.Beta, rec.Left.Gamma,
		rec.Right.Alpha, rec.Right.Beta, rec.Right.Gamma,
		rec.LeftRel.Alpha, rec.LeftRel.Beta, rec.LeftRel.Gamma,
		rec.RightRel.Alpha, rec.RightRel.Beta, rec.RightRel.Gamma,
		marker,
		nullIfEmpty(string(rec.Fault)),
		nullIfEmpty(rec.FaultSide),
		nullIfEmpty(string(rec.LeftHand)),
		nullIfEmpty(string(rec.RightHand)),
	)
	if err != nil {
		return fmt.Errorf("insert cycle %d: %w", rec.Seq, err)
	}
	return nil
}

// Cycles returns every cycle of a session in sequence order.
func (s *Store) Cycles(sessionID string) ([]CycleRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, ts,
		   alpha_l, beta_l, gamma_l, alpha_r, beta_r, gamma_r,
		   alpha_l_rel, beta_l_rel, gamma_l_rel, alpha_r_rel, beta_r_rel, gamma_r_rel,
		   marker, fault, fault_side, left_hand, right_hand
		 FROM cycles WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var ts string
		var marker sql.NullInt64
		var fault, faultSide, left, right sql.NullString
		if err := rows.Scan(&rec.SessionID, &rec.Seq, &ts,
			&rec.Left.Alpha, &rec.Left.Beta, &rec.Left.Gamma,
			&rec.Right.Alpha, &rec.Right.Beta, &rec.Right.Gamma,
			&rec.LeftRel.Alpha, &rec.LeftRel.Beta, &rec.LeftRel.Gamma,
			&rec.RightRel.Alpha, &rec.RightRel.Beta, &rec.RightRel.Gamma,
			&marker, &fault, &faultSide, &left, &right,
		); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		rec.Marker = int(marker.Int64)
		rec.Fault = classify.FaultReason(fault.String)
		rec.FaultSide = faultSide.String
		rec.LeftHand = classify.State(left.String)
		rec.RightHand = classify.State(right.String)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion cycles

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

// #endregion helpers
