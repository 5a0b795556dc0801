package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS study_submissions (
    session_id          TEXT PRIMARY KEY,
    user_id             INTEGER NOT NULL,
    deck_id             TEXT NOT NULL,
    selected_card_ids   TEXT NOT NULL, -- JSON array
    total_session_score INTEGER NOT NULL,
    submitted_at_ms     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS study_submissions_user_idx
    ON study_submissions (user_id, submitted_at_ms);

CREATE TABLE IF NOT EXISTS submission_card_metrics (
    session_id         TEXT NOT NULL REFERENCES study_submissions (session_id) ON DELETE CASCADE,
    card_id            TEXT NOT NULL,
    attempts           INTEGER NOT NULL,
    last_quality       INTEGER,
    next_review_hint_s INTEGER NOT NULL,
    last_attempt_at_ms INTEGER,
    outcome            TEXT NOT NULL,
    PRIMARY KEY (session_id, card_id)
);

CREATE TABLE IF NOT EXISTS session_card_progress (
    session_id   TEXT NOT NULL,
    card_id      TEXT NOT NULL,
    user_id      INTEGER NOT NULL,
    deck_id      TEXT NOT NULL,
    attempts     INTEGER NOT NULL,
    last_quality INTEGER NOT NULL,
    points       INTEGER NOT NULL,
    elapsed_ms   INTEGER NOT NULL,
    rated_at_ms  INTEGER NOT NULL,
    PRIMARY KEY (session_id, card_id)
);
`
