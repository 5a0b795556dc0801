package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/infra/postgres"
)

// TxRunner runs fn inside a single transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx postgres.DBTX) error) error
}

// SubmissionRepository stores finished sessions and running card progress.
type SubmissionRepository struct {
	db postgres.DBTX
	tx TxRunner
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db postgres.DBTX, tx TxRunner) *SubmissionRepository {
	return &SubmissionRepository{db: db, tx: tx}
}

// SaveSubmission writes the submission and its card metrics atomically.
// Saving the same session twice replaces the earlier rows.
func (r *SubmissionRepository) SaveSubmission(ctx context.Context, sub *entities.Submission) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		query := `
			INSERT INTO study_submissions (
				session_id, user_id, deck_id, selected_card_ids, total_session_score, submitted_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (session_id) DO UPDATE SET
				selected_card_ids = EXCLUDED.selected_card_ids,
				total_session_score = EXCLUDED.total_session_score,
				submitted_at = EXCLUDED.submitted_at
		`

		_, err := tx.Exec(
			ctx,
			query,
			sub.SessionID,
			sub.UserID,
			sub.DeckID,
			sub.SelectedCardIDs,
			sub.TotalSessionScore,
			sub.Date,
		)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		if _, err = tx.Exec(ctx, `DELETE FROM submission_card_metrics WHERE session_id = $1`, sub.SessionID); err != nil {
			return fmt.Errorf("clear card metrics: %w", err)
		}

		query = `
			INSERT INTO submission_card_metrics (
				session_id, card_id, attempts, last_quality, next_review_hint_s, last_attempt_at, outcome
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		for _, m := range sub.CardMetrics {
			var lastQuality *int16
			if m.LastQuality != nil {
				q := int16(*m.LastQuality)
				lastQuality = &q
			}

			_, err = tx.Exec(
				ctx,
				query,
				sub.SessionID,
				m.CardID,
				m.Attempts,
				lastQuality,
				int64(m.NextReviewHint/time.Second),
				m.LastAttemptAt,
				string(m.Outcome),
			)
			if err != nil {
				return fmt.Errorf("insert card metric %s: %w", m.CardID, err)
			}
		}

		return nil
	})
}

// SaveCardProgress upserts the running metric of a card in a session.
func (r *SubmissionRepository) SaveCardProgress(ctx context.Context, p *entities.CardProgress) error {
	query := `
		INSERT INTO session_card_progress (
			session_id, card_id, user_id, deck_id, attempts, last_quality, points, elapsed_ms, rated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, card_id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			last_quality = EXCLUDED.last_quality,
			points = EXCLUDED.points,
			elapsed_ms = EXCLUDED.elapsed_ms,
			rated_at = EXCLUDED.rated_at
		WHERE session_card_progress.attempts <= EXCLUDED.attempts
	`

	_, err := r.db.Exec(
		ctx,
		query,
		p.SessionID,
		p.CardID,
		p.UserID,
		p.DeckID,
		p.Attempts,
		int16(p.LastQuality),
		p.Points,
		p.Elapsed.Milliseconds(),
		p.RatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert card progress: %w", err)
	}

	return nil
}

// ListByUser returns the latest submissions of a user, newest first, with their card metrics.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Submission, error) {
	query := `
		SELECT session_id, user_id, deck_id, selected_card_ids, total_session_score, submitted_at
		FROM study_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entities.Submission
	bySession := make(map[string]*entities.Submission)
	for rows.Next() {
		var s entities.Submission
		if err = rows.Scan(
			&s.SessionID,
			&s.UserID,
			&s.DeckID,
			&s.SelectedCardIDs,
			&s.TotalSessionScore,
			&s.Date,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, &s)
		bySession[s.SessionID] = &s
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	if len(subs) == 0 {
		return subs, nil
	}

	sessionIDs := make([]string, 0, len(subs))
	for _, s := range subs {
		sessionIDs = append(sessionIDs, s.SessionID)
	}

	metricRows, err := r.db.Query(ctx, `
		SELECT session_id, card_id, attempts, last_quality, next_review_hint_s, last_attempt_at, outcome
		FROM submission_card_metrics
		WHERE session_id = ANY($1)
		ORDER BY session_id, card_id
	`, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("query card metrics: %w", err)
	}
	defer metricRows.Close()

	for metricRows.Next() {
		var (
			sessionID   string
			m           entities.CardMetric
			lastQuality *int16
			hintSeconds int64
			outcome     string
		)
		if err = metricRows.Scan(
			&sessionID,
			&m.CardID,
			&m.Attempts,
			&lastQuality,
			&hintSeconds,
			&m.LastAttemptAt,
			&outcome,
		); err != nil {
			return nil, fmt.Errorf("scan card metric: %w", err)
		}

		if lastQuality != nil {
			q := entities.Quality(*lastQuality)
			m.LastQuality = &q
		}
		m.NextReviewHint = time.Duration(hintSeconds) * time.Second
		m.Outcome = entities.CardOutcome(outcome)

		if s, ok := bySession[sessionID]; ok {
			s.CardMetrics = append(s.CardMetrics, m)
		}
	}
	if err = metricRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card metrics: %w", err)
	}

	return subs, nil
}
