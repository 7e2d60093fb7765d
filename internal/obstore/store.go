// Package obstore persists indicators and their raw/normalized observation
// history in SQLite, and serves the window queries the aggregator reads.
package obstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/band"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS indicators (
	key          TEXT PRIMARY KEY,
	loop_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	unit         TEXT,
	lower_bound  REAL,
	upper_bound  REAL,
	is_hub       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS raw_observations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id      TEXT,
	indicator_key  TEXT NOT NULL,
	ts             TEXT NOT NULL,
	value          REAL NOT NULL,
	unit           TEXT,
	metadata_json  TEXT,
	FOREIGN KEY (indicator_key) REFERENCES indicators(key)
);

CREATE TABLE IF NOT EXISTS normalized_observations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	indicator_key  TEXT NOT NULL,
	loop_id        TEXT NOT NULL,
	ts             TEXT NOT NULL,
	value          REAL NOT NULL,
	smoothed       REAL NOT NULL,
	band_pos       REAL NOT NULL,
	status         TEXT NOT NULL,
	severity       REAL NOT NULL,
	FOREIGN KEY (indicator_key) REFERENCES indicators(key)
);

CREATE INDEX IF NOT EXISTS idx_normalized_loop_ts
	ON normalized_observations(loop_id, ts);
CREATE INDEX IF NOT EXISTS idx_normalized_indicator_ts
	ON normalized_observations(indicator_key, ts);
`

// #endregion schema

// #region ts-layout

// tsLayout is fixed-width so lexicographic order on the ts column matches
// chronological order (RFC3339Nano trims trailing zeros and does not).
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion ts-layout

// #region store-struct

// Store manages indicator configuration and observation history in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region indicators

// UpsertIndicator creates or replaces an indicator configuration.
func (s *Store) UpsertIndicator(ind Indicator) error {
	_, err := s.db.Exec(
		`INSERT INTO indicators (key, loop_id, title, unit, lower_bound, upper_bound, is_hub)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			loop_id = excluded.loop_id,
			title = excluded.title,
			unit = excluded.unit,
			lower_bound = excluded.lower_bound,
			upper_bound = excluded.upper_bound,
			is_hub = excluded.is_hub`,
		ind.Key, ind.LoopID, ind.Title, nullIfEmpty(ind.Unit),
		nullIfNilF(ind.Lower), nullIfNilF(ind.Upper), boolToInt(ind.IsHub),
	)
	if err != nil {
		return fmt.Errorf("upsert indicator %s: %w", ind.Key, err)
	}
	return nil
}

// UpdateBounds edits an indicator's DE-band. Historical normalized
// observations are untouched; only future normalization sees the new band.
func (s *Store) UpdateBounds(key string, lower, upper *float64) error {
	res, err := s.db.Exec(
		`UPDATE indicators SET lower_bound = ?, upper_bound = ? WHERE key = ?`,
		nullIfNilF(lower), nullIfNilF(upper), key,
	)
	if err != nil {
		return fmt.Errorf("update bounds %s: %w", key, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("indicator %s not found", key)
	}
	return nil
}

// GetIndicator reads one indicator configuration.
func (s *Store) GetIndicator(key string) (Indicator, error) {
	var ind Indicator
	var unit sql.NullString
	var lower, upper sql.NullFloat64
	var isHub int

	err := s.db.QueryRow(
		`SELECT key, loop_id, title, unit, lower_bound, upper_bound, is_hub
		 FROM indicators WHERE key = ?`, key,
	).Scan(&ind.Key, &ind.LoopID, &ind.Title, &unit, &lower, &upper, &isHub)
	if err != nil {
		return Indicator{}, fmt.Errorf("get indicator %s: %w", key, err)
	}
	if unit.Valid {
		ind.Unit = unit.String
	}
	if lower.Valid {
		v := lower.Float64
		ind.Lower = &v
	}
	if upper.Valid {
		v := upper.Float64
		ind.Upper = &v
	}
	ind.IsHub = isHub != 0
	return ind, nil
}

// ListIndicators returns all indicators configured for a loop.
func (s *Store) ListIndicators(loopID string) ([]Indicator, error) {
	rows, err := s.db.Query(
		`SELECT key, loop_id, title, unit, lower_bound, upper_bound, is_hub
		 FROM indicators WHERE loop_id = ? ORDER BY key`, loopID,
	)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	defer rows.Close()

	var out []Indicator
	for rows.Next() {
		var ind Indicator
		var unit sql.NullString
		var lower, upper sql.NullFloat64
		var isHub int
		if err := rows.Scan(&ind.Key, &ind.LoopID, &ind.Title, &unit, &lower, &upper, &isHub); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		if unit.Valid {
			ind.Unit = unit.String
		}
		if lower.Valid {
			v := lower.Float64
			ind.Lower = &v
		}
		if upper.Valid {
			v := upper.Float64
			ind.Upper = &v
		}
		ind.IsHub = isHub != 0
		out = append(out, ind)
	}
	return out, rows.Err()
}

// #endregion indicators

// #region append

// AppendRaw appends one raw observation. Raw rows are never mutated.
func (s *Store) AppendRaw(raw RawObservation) error {
	_, err := s.db.Exec(
		`INSERT INTO raw_observations (source_id, indicator_key, ts, value, unit, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(raw.SourceID), raw.IndicatorKey,
		raw.Timestamp.UTC().Format(tsLayout), raw.Value,
		nullIfEmpty(raw.Unit), nullIfEmpty(raw.MetadataJSON),
	)
	if err != nil {
		return fmt.Errorf("append raw: %w", err)
	}
	return nil
}

// AppendNormalized appends one normalized observation.
func (s *Store) AppendNormalized(obs NormalizedObservation) error {
	_, err := s.db.Exec(
		`INSERT INTO normalized_observations (indicator_key, loop_id, ts, value, smoothed, band_pos, status, severity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.IndicatorKey, obs.LoopID,
		obs.Timestamp.UTC().Format(tsLayout),
		obs.Value, obs.Smoothed, obs.BandPos, string(obs.Status), obs.Severity,
	)
	if err != nil {
		return fmt.Errorf("append normalized: %w", err)
	}
	return nil
}

// #endregion append

// #region prev-smoothed

// PrevSmoothed returns the latest smoothed value for an indicator, or nil if
// the indicator has no normalized history yet.
func (s *Store) PrevSmoothed(indicatorKey string) (*float64, error) {
	var smoothed float64
	err := s.db.QueryRow(
		`SELECT smoothed FROM normalized_observations
		 WHERE indicator_key = ? ORDER BY ts DESC, id DESC LIMIT 1`, indicatorKey,
	).Scan(&smoothed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prev smoothed %s: %w", indicatorKey, err)
	}
	return &smoothed, nil
}

// #endregion prev-smoothed

// #region window-query

// WindowObservations returns a loop's normalized observations in [from, to],
// joined with the indicator hub flag, in the shape the aggregator consumes.
func (s *Store) WindowObservations(loopID string, from, to time.Time) ([]scores.Observation, error) {
	rows, err := s.db.Query(
		`SELECT n.indicator_key, n.ts, n.band_pos, n.status, n.smoothed, i.is_hub
		 FROM normalized_observations n
		 JOIN indicators i ON i.key = n.indicator_key
		 WHERE n.loop_id = ? AND n.ts >= ? AND n.ts <= ?
		 ORDER BY n.ts`,
		loopID, from.UTC().Format(tsLayout), to.UTC().Format(tsLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("window query: %w", err)
	}
	defer rows.Close()

	var out []scores.Observation
	for rows.Next() {
		var o scores.Observation
		var tsStr, statusStr string
		var isHub int
		if err := rows.Scan(&o.IndicatorKey, &tsStr, &o.BandPos, &statusStr, &o.Smoothed, &isHub); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parse ts %q: %w", tsStr, err)
		}
		status, ok := band.ParseStatus(statusStr)
		if !ok {
			return nil, fmt.Errorf("unknown status %q for %s", statusStr, o.IndicatorKey)
		}
		o.Status = status
		o.IsHub = isHub != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

// #endregion window-query

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNilF(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
