package service

import (
	"context"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// DeckRepository supplies decks and their ordered cards.
type DeckRepository interface {
	GetByID(ctx context.Context, deckID string) (*entities.Deck, error)
	GetAll(ctx context.Context) ([]*entities.Deck, error)
}

// SubmissionRepository persists final session payloads.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, sub *entities.Submission) error
}

// CardProgressRepository persists running per-card metrics during a session.
type CardProgressRepository interface {
	SaveCardProgress(ctx context.Context, p *entities.CardProgress) error
}

// ResponseSink is the storage collaborator of a study session.
type ResponseSink interface {
	SubmissionRepository
	CardProgressRepository
}

// IdleSweeper discards sessions that have not been used for a while.
type IdleSweeper interface {
	SweepIdle(now time.Time) int
}

// SubmissionHistory lists past submissions of a user.
type SubmissionHistory interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entities.Submission, error)
}
