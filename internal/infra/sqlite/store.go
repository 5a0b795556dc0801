// Package sqlite keeps study results in a local SQLite file for single-user runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"

	_ "modernc.org/sqlite" // registers the sqlite driver
)

// Store implements the submission and card progress repositories on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; ":memory:" databases are also per connection.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err = db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSubmission writes the submission and its card metrics in one transaction.
func (s *Store) SaveSubmission(ctx context.Context, sub *entities.Submission) (err error) {
	cardIDs, err := json.Marshal(sub.SelectedCardIDs)
	if err != nil {
		return fmt.Errorf("encode card ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO study_submissions (
			session_id, user_id, deck_id, selected_card_ids, total_session_score, submitted_at_ms
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			selected_card_ids = excluded.selected_card_ids,
			total_session_score = excluded.total_session_score,
			submitted_at_ms = excluded.submitted_at_ms
	`,
		sub.SessionID,
		sub.UserID,
		sub.DeckID,
		string(cardIDs),
		sub.TotalSessionScore,
		sub.Date.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM submission_card_metrics WHERE session_id = ?`, sub.SessionID); err != nil {
		return fmt.Errorf("clear card metrics: %w", err)
	}

	for _, m := range sub.CardMetrics {
		var lastQuality, lastAttempt sql.NullInt64
		if m.LastQuality != nil {
			lastQuality = sql.NullInt64{Int64: int64(*m.LastQuality), Valid: true}
		}
		if m.LastAttemptAt != nil {
			lastAttempt = sql.NullInt64{Int64: m.LastAttemptAt.UnixMilli(), Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO submission_card_metrics (
				session_id, card_id, attempts, last_quality, next_review_hint_s, last_attempt_at_ms, outcome
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			sub.SessionID,
			m.CardID,
			m.Attempts,
			lastQuality,
			int64(m.NextReviewHint/time.Second),
			lastAttempt,
			string(m.Outcome),
		)
		if err != nil {
			return fmt.Errorf("insert card metric %s: %w", m.CardID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// SaveCardProgress upserts the running metric of a card. Rows with more
// attempts are never overwritten by older updates.
func (s *Store) SaveCardProgress(ctx context.Context, p *entities.CardProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_card_progress (
			session_id, card_id, user_id, deck_id, attempts, last_quality, points, elapsed_ms, rated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, card_id) DO UPDATE SET
			attempts = excluded.attempts,
			last_quality = excluded.last_quality,
			points = excluded.points,
			elapsed_ms = excluded.elapsed_ms,
			rated_at_ms = excluded.rated_at_ms
		WHERE session_card_progress.attempts <= excluded.attempts
	`,
		p.SessionID,
		p.CardID,
		p.UserID,
		p.DeckID,
		p.Attempts,
		int(p.LastQuality),
		p.Points,
		p.Elapsed.Milliseconds(),
		p.RatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert card progress: %w", err)
	}

	return nil
}

// ListByUser returns the latest submissions of a user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_id, deck_id, selected_card_ids, total_session_score, submitted_at_ms
		FROM study_submissions
		WHERE user_id = ?
		ORDER BY submitted_at_ms DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entities.Submission
	for rows.Next() {
		var (
			sub         entities.Submission
			cardIDs     string
			submittedMS int64
		)
		if err = rows.Scan(
			&sub.SessionID,
			&sub.UserID,
			&sub.DeckID,
			&cardIDs,
			&sub.TotalSessionScore,
			&submittedMS,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}

		if err = json.Unmarshal([]byte(cardIDs), &sub.SelectedCardIDs); err != nil {
			return nil, fmt.Errorf("decode card ids: %w", err)
		}
		sub.Date = time.UnixMilli(submittedMS).UTC()

		subs = append(subs, &sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	rows.Close()

	for _, sub := range subs {
		if sub.CardMetrics, err = s.cardMetrics(ctx, sub.SessionID); err != nil {
			return nil, err
		}
	}

	return subs, nil
}

func (s *Store) cardMetrics(ctx context.Context, sessionID string) ([]entities.CardMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id, attempts, last_quality, next_review_hint_s, last_attempt_at_ms, outcome
		FROM submission_card_metrics
		WHERE session_id = ?
		ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query card metrics: %w", err)
	}
	defer rows.Close()

	var metrics []entities.CardMetric
	for rows.Next() {
		var (
			m           entities.CardMetric
			lastQuality sql.NullInt64
			lastAttempt sql.NullInt64
			hintSeconds int64
			outcome     string
		)
		if err = rows.Scan(&m.CardID, &m.Attempts, &lastQuality, &hintSeconds, &lastAttempt, &outcome); err != nil {
			return nil, fmt.Errorf("scan card metric: %w", err)
		}

		if lastQuality.Valid {
			q := entities.Quality(lastQuality.Int64)
			m.LastQuality = &q
		}
		if lastAttempt.Valid {
			at := time.UnixMilli(lastAttempt.Int64).UTC()
			m.LastAttemptAt = &at
		}
		m.NextReviewHint = time.Duration(hintSeconds) * time.Second
		m.Outcome = entities.CardOutcome(outcome)

		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card metrics: %w", err)
	}

	return metrics, nil
}
