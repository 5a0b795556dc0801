// Package session implements the study session state machine: building the
// working set and traversal queue, applying ratings, re-queueing failed cards
// and projecting progress.
//
// A Session is not safe for concurrent use and is not reentrant during a single
// submission. Callers serialize SubmitRating and Advance for the same session.
package session

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// DefaultSize is the number of deck cards selected for a session.
const DefaultSize = 10

// Rand is the randomness source used for shuffling and re-queue offsets.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Options configure Initialize.
type Options struct {
	Size int  // working set size, DefaultSize when zero
	Rand Rand // randomness source, seeded from the clock when nil
}

// Session holds the per-card state and traversal queue of one study session.
type Session struct {
	cards      map[string]entities.Card
	states     map[string]*entities.CardSessionState
	workingSet []string
	queue      []string
	pos        int
	rng        Rand
}

// Initialize selects the first opts.Size cards as the working set and returns
// a session whose queue is a uniform random permutation of them.
func Initialize(cards []entities.Card, opts Options) (*Session, error) {
	if len(cards) == 0 {
		return nil, entities.ErrEmptyDeck
	}

	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	selected := cards[:min(size, len(cards))]

	s := &Session{
		cards:      make(map[string]entities.Card, len(selected)),
		states:     make(map[string]*entities.CardSessionState, len(selected)),
		workingSet: make([]string, 0, len(selected)),
		rng:        rng,
	}

	for _, c := range selected {
		if _, ok := s.cards[c.ID]; ok {
			return nil, fmt.Errorf("%w: %q", entities.ErrDuplicateCard, c.ID)
		}
		s.cards[c.ID] = c
		s.states[c.ID] = &entities.CardSessionState{}
		s.workingSet = append(s.workingSet, c.ID)
	}

	s.queue = slices.Clone(s.workingSet)
	s.shuffle(s.queue)

	return s, nil
}

func (s *Session) shuffle(ids []string) {
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// Current returns the card at the current queue position.
func (s *Session) Current() (string, bool) {
	if s.Done() {
		return "", false
	}
	return s.queue[s.pos], true
}

// Done reports whether the queue has been fully traversed.
func (s *Session) Done() bool {
	return s.pos >= len(s.queue)
}

// Position returns the index of the current occurrence in Queue.
func (s *Session) Position() int {
	return s.pos
}

// Queue returns a copy of the full traversal order, consumed occurrences included.
func (s *Session) Queue() []string {
	return slices.Clone(s.queue)
}

// Remaining returns the number of occurrences from the current one to the end.
func (s *Session) Remaining() int {
	return max(len(s.queue)-s.pos, 0)
}

// WorkingSet returns the identifiers selected at initialization, in deck order.
func (s *Session) WorkingSet() []string {
	return slices.Clone(s.workingSet)
}

// Card returns the card with the given identifier.
func (s *Session) Card(id string) (entities.Card, bool) {
	c, ok := s.cards[id]
	return c, ok
}

// State returns a copy of the card's session state.
func (s *Session) State(id string) (entities.CardSessionState, bool) {
	st, ok := s.states[id]
	if !ok {
		return entities.CardSessionState{}, false
	}
	return st.Clone(), true
}

// States returns a copy of every card state, extras included.
func (s *Session) States() map[string]entities.CardSessionState {
	out := make(map[string]entities.CardSessionState, len(s.states))
	for id, st := range s.states {
		out[id] = st.Clone()
	}
	return out
}

// Aggregate projects the current progress of the working set.
func (s *Session) Aggregate() entities.SessionAggregate {
	return Aggregate(s.States(), s.workingSet)
}
