package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/domain/session"
)

var (
	ErrNoActiveSession = errors.New("no active study session")
	ErrStaleSession    = errors.New("study session was reset or closed")
	ErrNothingToExpand = errors.New("no more cards in deck")
)

const progressSyncTimeout = 10 * time.Second

// StudyConfig holds study session tuning parameters.
type StudyConfig struct {
	SessionSize   int           // cards per session
	IdleTimeout   time.Duration // sessions idle for longer are discarded
	SubmitRetries int           // extra attempts when saving the final submission fails
	RetryBackoff  time.Duration // delay between submission attempts
}

// StudyView is a snapshot of a session for the presentation layer.
type StudyView struct {
	SessionID string
	DeckID    string
	DeckTitle string
	Card      *entities.Card // current card, nil when the queue is exhausted
	State     entities.CardSessionState
	Position  int
	Remaining int
	Done      bool
	Aggregate entities.SessionAggregate
}

// RateOutcome is returned by Rate.
type RateOutcome struct {
	Result session.RatingResult
	View   *StudyView // session after advancing past the rated card
}

// SubmitResult carries the computed session result. It is returned even when
// persisting the submission failed.
type SubmitResult struct {
	Submission *entities.Submission
	Aggregate  entities.SessionAggregate
}

// activeSession is one user's running session. Every new session (start or
// reset) gets a fresh id that tags asynchronous work started on its behalf.
type activeSession struct {
	mu sync.Mutex

	id           string
	userID       int64
	deck         *entities.Deck
	sess         *session.Session
	startedAt    time.Time
	lastActivity time.Time
	shownAt      time.Time      // when the current card was presented
	synced       map[string]int // attempts acknowledged by the progress sink
	closed       bool
}

// StudyService runs one study session per user.
type StudyService struct {
	decks   DeckRepository
	sink    ResponseSink
	cfg     StudyConfig
	logger  *zap.Logger
	now     func() time.Time
	newRand func() session.Rand

	mu       sync.Mutex
	sessions map[int64]*activeSession

	inflight conc.WaitGroup
}

// NewStudyService creates a new study service.
func NewStudyService(
	decks DeckRepository,
	sink ResponseSink,
	cfg StudyConfig,
	logger *zap.Logger,
) *StudyService {
	return &StudyService{
		decks:  decks,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newRand: func() session.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: make(map[int64]*activeSession),
	}
}

// Start begins a new session on the deck, replacing any session the user had.
func (s *StudyService) Start(ctx context.Context, userID int64, deckID string) (*StudyView, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	return s.begin(userID, deck)
}

func (s *StudyService) begin(userID int64, deck *entities.Deck) (*StudyView, error) {
	sess, err := session.Initialize(deck.Cards, session.Options{
		Size: s.cfg.SessionSize,
		Rand: s.newRand(),
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	as := &activeSession{
		id:           uuid.NewString(),
		userID:       userID,
		deck:         deck,
		sess:         sess,
		startedAt:    now,
		lastActivity: now,
		shownAt:      now,
		synced:       make(map[string]int),
	}

	s.mu.Lock()
	old := s.sessions[userID]
	s.sessions[userID] = as
	s.mu.Unlock()

	if old != nil {
		old.close()
	}

	s.logger.Info("study session started",
		zap.Int64("user_id", userID),
		zap.String("session_id", as.id),
		zap.String("deck_id", deck.ID),
		zap.Int("cards", len(sess.WorkingSet())),
	)

	as.mu.Lock()
	defer as.mu.Unlock()
	return as.view(), nil
}

// Current returns the user's active session.
func (s *StudyService) Current(_ context.Context, userID int64) (*StudyView, error) {
	as, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	if as.closed {
		return nil, ErrNoActiveSession
	}
	return as.view(), nil
}

// Progress returns the aggregate of the user's active session.
func (s *StudyService) Progress(ctx context.Context, userID int64) (entities.SessionAggregate, error) {
	view, err := s.Current(ctx, userID)
	if err != nil {
		return entities.SessionAggregate{}, err
	}
	return view.Aggregate, nil
}

// Rate applies a rating to the current card and advances the queue.
//
// position is the queue position the card was shown at. The rating and the
// advance happen under the session lock, so overlapping or repeated
// submissions of the same occurrence are rejected with
// ErrInvalidStateTransition, even when the card is queued again right away.
// Per-card progress is persisted asynchronously; failures are only logged.
func (s *StudyService) Rate(
	_ context.Context,
	userID int64,
	sessionID string,
	cardID string,
	position int,
	q entities.Quality,
) (*RateOutcome, error) {
	as, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	if as.closed {
		as.mu.Unlock()
		return nil, ErrStaleSession
	}

	now := s.now()
	var res session.RatingResult
	if position != as.sess.Position() {
		err = fmt.Errorf("%w: card %s was shown at position %d, queue is at %d",
			entities.ErrInvalidStateTransition, cardID, position, as.sess.Position())
	} else {
		res, err = as.sess.SubmitRating(cardID, q, now)
	}
	if err != nil {
		as.mu.Unlock()
		s.logger.Warn("rating discarded",
			zap.Int64("user_id", userID),
			zap.String("session_id", sessionID),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
		return nil, err
	}

	st, _ := as.sess.State(cardID)
	progress := &entities.CardProgress{
		SessionID:   as.id,
		UserID:      userID,
		DeckID:      as.deck.ID,
		CardID:      cardID,
		Attempts:    st.Attempts,
		LastQuality: q,
		Points:      st.Points,
		Elapsed:     now.Sub(as.shownAt),
		RatedAt:     now,
	}

	if _, _, err := as.sess.Advance(); err != nil {
		as.mu.Unlock()
		return nil, fmt.Errorf("advance queue: %w", err)
	}
	as.lastActivity = now
	as.shownAt = now
	view := as.view()
	as.mu.Unlock()

	s.syncProgress(as, progress)

	return &RateOutcome{Result: res, View: view}, nil
}

// syncProgress saves the running card metric without blocking the session.
func (s *StudyService) syncProgress(as *activeSession, p *entities.CardProgress) {
	s.inflight.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), progressSyncTimeout)
		defer cancel()

		if err := s.sink.SaveCardProgress(ctx, p); err != nil {
			s.logger.Warn("failed to sync card progress",
				zap.Int64("user_id", p.UserID),
				zap.String("session_id", p.SessionID),
				zap.String("card_id", p.CardID),
				zap.Error(err),
			)
			return
		}

		as.mu.Lock()
		defer as.mu.Unlock()
		if as.closed {
			s.logger.Debug("ignoring progress ack from closed session",
				zap.String("session_id", p.SessionID),
				zap.String("card_id", p.CardID),
			)
			return
		}
		as.synced[p.CardID] = max(as.synced[p.CardID], p.Attempts)
	})
}

// Expand adds up to n deck cards that are not yet part of the session.
func (s *StudyService) Expand(_ context.Context, userID int64, sessionID string, n int) (*StudyView, error) {
	as, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	if as.closed {
		return nil, ErrStaleSession
	}

	var extra []entities.Card
	for _, c := range as.deck.Cards {
		if len(extra) == n {
			break
		}
		if _, ok := as.sess.Card(c.ID); !ok {
			extra = append(extra, c)
		}
	}
	if len(extra) == 0 {
		return nil, ErrNothingToExpand
	}

	wasDone := as.sess.Done()
	if _, err := as.sess.Expand(extra); err != nil {
		return nil, err
	}
	if wasDone {
		as.shownAt = s.now()
	}
	as.lastActivity = s.now()

	s.logger.Info("study session expanded",
		zap.Int64("user_id", userID),
		zap.String("session_id", as.id),
		zap.Int("added", len(extra)),
	)

	return as.view(), nil
}

// Reset restarts the session from the same deck. Results of persistence calls
// started by the previous session are ignored.
func (s *StudyService) Reset(_ context.Context, userID int64, sessionID string) (*StudyView, error) {
	as, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("study session reset",
		zap.Int64("user_id", userID),
		zap.String("session_id", sessionID),
	)

	return s.begin(userID, as.deck)
}

// Submit builds the final payload and saves it. The session is closed only
// when saving succeeds; on failure the computed result is returned along with
// a *entities.PersistenceError and Submit may be called again.
func (s *StudyService) Submit(ctx context.Context, userID int64, sessionID string) (*SubmitResult, error) {
	as, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	if as.closed {
		as.mu.Unlock()
		return nil, ErrStaleSession
	}
	now := s.now()
	as.lastActivity = now
	sub := &entities.Submission{
		SessionID:       as.id,
		UserID:          userID,
		DeckID:          as.deck.ID,
		SelectedCardIDs: as.sess.WorkingSet(),
		CardMetrics:     as.sess.Metrics(),
		Date:            now,
	}
	agg := as.sess.Aggregate()
	sub.TotalSessionScore = agg.TotalPoints
	synced := len(as.synced)
	duration := now.Sub(as.startedAt)
	as.mu.Unlock()

	result := &SubmitResult{Submission: sub, Aggregate: agg}

	if err := s.saveSubmission(ctx, sub); err != nil {
		s.logger.Error("failed to save submission",
			zap.Int64("user_id", userID),
			zap.String("session_id", sessionID),
			zap.Int("score", sub.TotalSessionScore),
			zap.Error(err),
		)
		return result, &entities.PersistenceError{Op: "save submission", Err: err}
	}

	s.discard(userID, as)

	s.logger.Info("study session submitted",
		zap.Int64("user_id", userID),
		zap.String("session_id", sessionID),
		zap.Int("score", sub.TotalSessionScore),
		zap.Int("mastered", agg.Mastered),
		zap.Int("synced_cards", synced),
		zap.Duration("duration", duration),
	)

	return result, nil
}

func (s *StudyService) saveSubmission(ctx context.Context, sub *entities.Submission) error {
	var err error
	for attempt := 0; attempt <= s.cfg.SubmitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(s.cfg.RetryBackoff):
			}
		}

		if err = s.sink.SaveSubmission(ctx, sub); err == nil {
			return nil
		}

		s.logger.Warn("submission attempt failed",
			zap.String("session_id", sub.SessionID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}

// Abandon discards the user's session without saving it.
func (s *StudyService) Abandon(_ context.Context, userID int64) {
	s.mu.Lock()
	as := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if as != nil {
		as.close()
		s.logger.Info("study session abandoned",
			zap.Int64("user_id", userID),
			zap.String("session_id", as.id),
		)
	}
}

// SweepIdle discards sessions idle for longer than the configured timeout and
// returns how many were removed.
func (s *StudyService) SweepIdle(now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	candidates := make([]*activeSession, 0, len(s.sessions))
	for _, as := range s.sessions {
		candidates = append(candidates, as)
	}
	s.mu.Unlock()

	swept := 0
	for _, as := range candidates {
		as.mu.Lock()
		idle := now.Sub(as.lastActivity) > s.cfg.IdleTimeout
		as.mu.Unlock()

		if idle && s.discard(as.userID, as) {
			swept++
		}
	}

	return swept
}

// Wait blocks until asynchronous persistence calls have finished.
func (s *StudyService) Wait() {
	s.inflight.Wait()
}

// active returns the user's session, if any.
func (s *StudyService) active(userID int64) (*activeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	as, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return as, nil
}

// lookup returns the user's session if its id matches sessionID.
func (s *StudyService) lookup(userID int64, sessionID string) (*activeSession, error) {
	as, err := s.active(userID)
	if err != nil {
		return nil, err
	}
	if as.id != sessionID {
		return nil, ErrStaleSession
	}
	return as, nil
}

// discard removes as if it is still the user's session.
func (s *StudyService) discard(userID int64, as *activeSession) bool {
	s.mu.Lock()
	removed := s.sessions[userID] == as
	if removed {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	if removed {
		as.close()
	}
	return removed
}

func (as *activeSession) close() {
	as.mu.Lock()
	as.closed = true
	as.mu.Unlock()
}

// view must be called with as.mu held.
func (as *activeSession) view() *StudyView {
	v := &StudyView{
		SessionID: as.id,
		DeckID:    as.deck.ID,
		DeckTitle: as.deck.Title,
		Position:  as.sess.Position(),
		Remaining: as.sess.Remaining(),
		Done:      as.sess.Done(),
		Aggregate: as.sess.Aggregate(),
	}

	if id, ok := as.sess.Current(); ok {
		card, _ := as.sess.Card(id)
		v.Card = &card
		v.State, _ = as.sess.State(id)
	}

	return v
}
