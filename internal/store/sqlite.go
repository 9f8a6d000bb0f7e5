// Package store persists append-only consumption statistics in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// LastPoint returns the newest committed point of a series, or nil when the
// series has no data yet.
func (s *Store) LastPoint(seriesID string) (*models.SeriesPoint, error) {
	row := s.db.QueryRow(`
		SELECT start, state, cumulative_sum
		FROM series_points
		WHERE series_id = ?
		ORDER BY start DESC
		LIMIT 1
	`, seriesID)

	var p models.SeriesPoint
	err := row.Scan(&p.Start, &p.State, &p.CumulativeSum)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Append commits a batch of points in one transaction. A point whose start
// already exists for the series fails the whole batch; committed points are
// never rewritten.
func (s *Store) Append(seriesID string, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO series_points (series_id, start, state, cumulative_sum)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(seriesID, p.Start.UTC(), p.State, p.CumulativeSum); err != nil {
			return fmt.Errorf("insert point %s: %w", p.Start, err)
		}
	}
	return tx.Commit()
}

// Range returns the points of a series within [from, to], oldest first.
func (s *Store) Range(seriesID string, from, to time.Time) ([]models.SeriesPoint, error) {
	rows, err := s.db.Query(`
		SELECT start, state, cumulative_sum
		FROM series_points
		WHERE series_id = ? AND start >= ? AND start <= ?
		ORDER BY start ASC
	`, seriesID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.SeriesPoint
	for rows.Next() {
		var p models.SeriesPoint
		if err := rows.Scan(&p.Start, &p.State, &p.CumulativeSum); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// StartUpdateRun records the beginning of an update cycle for auditing and
// returns its row ID.
func (s *Store) StartUpdateRun(startedAt time.Time) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO update_runs (started_at) VALUES (?)
	`, startedAt.UTC())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteUpdateRun finalizes an update cycle record.
func (s *Store) CompleteUpdateRun(id int64, outcome string, committed int, errMsg string) error {
	msg := sql.NullString{String: errMsg, Valid: errMsg != ""}
	_, err := s.db.Exec(`
		UPDATE update_runs SET finished_at = ?, outcome = ?, points_committed = ?, error_message = ?
		WHERE id = ?
	`, time.Now().UTC(), outcome, committed, msg, id)
	return err
}
