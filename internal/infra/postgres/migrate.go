package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS study_submissions (
    session_id          TEXT PRIMARY KEY,
    user_id             BIGINT NOT NULL,
    deck_id             TEXT NOT NULL,
    selected_card_ids   TEXT[] NOT NULL,
    total_session_score INTEGER NOT NULL,
    submitted_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS study_submissions_user_idx
    ON study_submissions (user_id, submitted_at DESC);

CREATE TABLE IF NOT EXISTS submission_card_metrics (
    session_id         TEXT NOT NULL REFERENCES study_submissions (session_id) ON DELETE CASCADE,
    card_id            TEXT NOT NULL,
    attempts           INTEGER NOT NULL,
    last_quality       SMALLINT,
    next_review_hint_s BIGINT NOT NULL,
    last_attempt_at    TIMESTAMPTZ,
    outcome            TEXT NOT NULL,
    PRIMARY KEY (session_id, card_id)
);

CREATE TABLE IF NOT EXISTS session_card_progress (
    session_id   TEXT NOT NULL,
    card_id      TEXT NOT NULL,
    user_id      BIGINT NOT NULL,
    deck_id      TEXT NOT NULL,
    attempts     INTEGER NOT NULL,
    last_quality SMALLINT NOT NULL,
    points       INTEGER NOT NULL,
    elapsed_ms   BIGINT NOT NULL,
    rated_at     TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (session_id, card_id)
);
`

// Migrate creates the tables used by the submission repository.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
