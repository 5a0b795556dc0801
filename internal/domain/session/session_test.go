package session

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// fixedRand keeps the deck order and always picks the smallest offset allowed
// by n, shifted by off.
type fixedRand struct{ off int }

func (r fixedRand) Intn(n int) int            { return min(r.off, n-1) }
func (fixedRand) Shuffle(int, func(i, j int)) {}

func makeCards(n int) []entities.Card {
	cards := make([]entities.Card, n)
	for i := range cards {
		id := fmt.Sprintf("c%d", i+1)
		cards[i] = entities.Card{ID: id, Question: "q " + id, Answer: "a " + id}
	}
	return cards
}

func mustInit(t *testing.T, cards []entities.Card, opts Options) *Session {
	t.Helper()
	s, err := Initialize(cards, opts)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func mustRate(t *testing.T, s *Session, id string, q entities.Quality) RatingResult {
	t.Helper()
	res, err := s.SubmitRating(id, q, t0)
	if err != nil {
		t.Fatalf("SubmitRating(%s, %d): %v", id, q, err)
	}
	return res
}

func mustAdvance(t *testing.T, s *Session) string {
	t.Helper()
	next, _, err := s.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return next
}

func TestInitializeEmptyDeck(t *testing.T) {
	_, err := Initialize(nil, Options{})
	if !errors.Is(err, entities.ErrEmptyDeck) {
		t.Fatalf("err = %v, want ErrEmptyDeck", err)
	}
}

func TestInitializeDuplicateCard(t *testing.T) {
	cards := makeCards(3)
	cards[2].ID = cards[0].ID
	_, err := Initialize(cards, Options{})
	if !errors.Is(err, entities.ErrDuplicateCard) {
		t.Fatalf("err = %v, want ErrDuplicateCard", err)
	}
}

func TestInitializePermutation(t *testing.T) {
	tests := []struct {
		deck, size, want int
	}{
		{deck: 1, size: 10, want: 1},
		{deck: 3, size: 10, want: 3},
		{deck: 10, size: 10, want: 10},
		{deck: 25, size: 0, want: DefaultSize},
		{deck: 25, size: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("deck=%d/size=%d", tt.deck, tt.size), func(t *testing.T) {
			cards := makeCards(tt.deck)
			for seed := int64(0); seed < 20; seed++ {
				s := mustInit(t, cards, Options{Size: tt.size, Rand: rand.New(rand.NewSource(seed))})

				queue := s.Queue()
				if len(queue) != tt.want {
					t.Fatalf("len(queue) = %d, want %d", len(queue), tt.want)
				}

				got := slices.Clone(queue)
				slices.Sort(got)
				want := s.WorkingSet()
				slices.Sort(want)
				if !slices.Equal(got, want) {
					t.Fatalf("queue %v is not a permutation of %v", queue, want)
				}

				for i, c := range cards[:tt.want] {
					if s.WorkingSet()[i] != c.ID {
						t.Fatalf("working set[%d] = %s, want %s", i, s.WorkingSet()[i], c.ID)
					}
					st, ok := s.State(c.ID)
					if !ok {
						t.Fatalf("missing state for %s", c.ID)
					}
					if st.Answered || st.Attempts != 0 || st.LastQuality != nil || st.PendingReview {
						t.Fatalf("state for %s not zero: %+v", c.ID, st)
					}
				}
			}
		})
	}
}

func TestInitializeShuffleIsUniform(t *testing.T) {
	const runs = 60000
	cards := makeCards(3)
	rng := rand.New(rand.NewSource(42))
	counts := make(map[string]int)

	for range runs {
		s := mustInit(t, cards, Options{Rand: rng})
		counts[strings.Join(s.Queue(), ",")]++
	}

	if len(counts) != 6 {
		t.Fatalf("saw %d permutations, want 6: %v", len(counts), counts)
	}
	expected := runs / 6
	for perm, n := range counts {
		if n < expected*9/10 || n > expected*11/10 {
			t.Errorf("permutation %s seen %d times, want about %d", perm, n, expected)
		}
	}
}

// Three cards: pass, fail then pass on the second attempt, pass.
func TestScenarioThreeCards(t *testing.T) {
	s := mustInit(t, makeCards(3), Options{Rand: fixedRand{}})

	res := mustRate(t, s, "c1", entities.QualityPerfect)
	if res.Points != 10 || !res.IsCorrect {
		t.Fatalf("c1 result = %+v, want 10 points", res)
	}
	if agg := s.Aggregate(); agg.Mastered != 1 {
		t.Fatalf("mastered = %d, want 1", agg.Mastered)
	}

	if next := mustAdvance(t, s); next != "c2" {
		t.Fatalf("next = %s, want c2", next)
	}
	res = mustRate(t, s, "c2", entities.QualityClose)
	if res.Points != 0 || res.IsCorrect || !res.Requeued {
		t.Fatalf("c2 result = %+v, want requeued with 0 points", res)
	}
	if st, _ := s.State("c2"); !st.PendingReview {
		t.Fatal("c2 should be pending review")
	}

	if next := mustAdvance(t, s); next != "c3" {
		t.Fatalf("next = %s, want c3", next)
	}
	res = mustRate(t, s, "c3", entities.QualityEffortful)
	if res.Points != 10 {
		t.Fatalf("c3 points = %d, want 10", res.Points)
	}
	if agg := s.Aggregate(); agg.Mastered != 2 {
		t.Fatalf("mastered = %d, want 2", agg.Mastered)
	}

	if next := mustAdvance(t, s); next != "c2" {
		t.Fatalf("next = %s, want c2 to resurface", next)
	}
	st, _ := s.State("c2")
	if st.Answered {
		t.Fatal("c2 should be reset to unanswered on re-entry")
	}
	if st.Attempts != 1 {
		t.Fatalf("c2 attempts = %d, want 1 preserved", st.Attempts)
	}

	res = mustRate(t, s, "c2", entities.QualityEasy)
	if res.Points != 7 || res.Attempt != 2 {
		t.Fatalf("c2 second result = %+v, want attempt 2 with 7 points", res)
	}

	if _, ok, _ := s.Advance(); ok {
		t.Fatal("queue should be exhausted")
	}
	if !s.Done() {
		t.Fatal("Done() = false, want true")
	}

	want := entities.SessionAggregate{WorkingSetSize: 3, Mastered: 3, PendingReview: 0, Percentage: 100, TotalPoints: 27}
	if got := s.Aggregate(); got != want {
		t.Fatalf("aggregate = %+v, want %+v", got, want)
	}
}

func TestSubmitRatingNotCurrent(t *testing.T) {
	s := mustInit(t, makeCards(3), Options{Rand: fixedRand{}})
	queue, states := s.Queue(), s.States()

	_, err := s.SubmitRating("c2", entities.QualityPerfect, t0)
	if !errors.Is(err, entities.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	if !reflect.DeepEqual(queue, s.Queue()) {
		t.Errorf("queue changed: %v -> %v", queue, s.Queue())
	}
	if !reflect.DeepEqual(states, s.States()) {
		t.Errorf("states changed")
	}

	_, err = s.SubmitRating("unknown", entities.QualityPerfect, t0)
	if !errors.Is(err, entities.ErrInvalidStateTransition) {
		t.Fatalf("unknown card err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestSubmitRatingTwiceRejected(t *testing.T) {
	for _, q := range []entities.Quality{entities.QualityWrong, entities.QualityPerfect} {
		t.Run(fmt.Sprintf("quality=%d", q), func(t *testing.T) {
			s := mustInit(t, makeCards(3), Options{Rand: fixedRand{}})
			mustRate(t, s, "c1", q)
			queue, states := s.Queue(), s.States()

			_, err := s.SubmitRating("c1", entities.QualityPerfect, t0)
			if !errors.Is(err, entities.ErrInvalidStateTransition) {
				t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
			}
			if !reflect.DeepEqual(queue, s.Queue()) || !reflect.DeepEqual(states, s.States()) {
				t.Error("rejected submission changed the session")
			}
		})
	}
}

func TestSubmitRatingInvalidQuality(t *testing.T) {
	s := mustInit(t, makeCards(2), Options{Rand: fixedRand{}})
	for _, q := range []entities.Quality{-1, 6} {
		if _, err := s.SubmitRating("c1", q, t0); !errors.Is(err, entities.ErrInvalidQuality) {
			t.Errorf("quality %d: err = %v, want ErrInvalidQuality", q, err)
		}
	}
	if st, _ := s.State("c1"); st.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", st.Attempts)
	}
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	s := mustInit(t, makeCards(2), Options{Rand: fixedRand{}})
	if _, _, err := s.Advance(); !errors.Is(err, entities.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	if s.Position() != 0 {
		t.Fatalf("position = %d, want 0", s.Position())
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		attempt int
		q       entities.Quality
		want    int
	}{
		{1, entities.QualityPerfect, 10},
		{1, entities.QualityEffortful, 10},
		{2, entities.QualityEasy, 7},
		{3, entities.QualityEffortful, 4},
		{4, entities.QualityPerfect, 1},
		{9, entities.QualityPerfect, 1},
		{1, entities.QualityClose, 0},
		{2, entities.QualityForgot, 0},
		{0, entities.QualityPerfect, 0},
	}
	for _, tt := range tests {
		if got := Points(tt.attempt, tt.q); got != tt.want {
			t.Errorf("Points(%d, %d) = %d, want %d", tt.attempt, tt.q, got, tt.want)
		}
	}
}

func TestRequeueAtQueueEnd(t *testing.T) {
	s := mustInit(t, makeCards(1), Options{Rand: fixedRand{}})

	res := mustRate(t, s, "c1", entities.QualityForgot)
	if !res.Requeued || res.RequeuedAt != 1 {
		t.Fatalf("result = %+v, want requeued at 1", res)
	}
	if next := mustAdvance(t, s); next != "c1" {
		t.Fatalf("next = %s, want c1", next)
	}

	for attempt, q := range []entities.Quality{entities.QualityWrong, entities.QualityClose} {
		res = mustRate(t, s, "c1", q)
		if res.Attempt != attempt+2 {
			t.Fatalf("attempt = %d, want %d", res.Attempt, attempt+2)
		}
		mustAdvance(t, s)
	}

	res = mustRate(t, s, "c1", entities.QualityPerfect)
	if res.Points != 1 {
		t.Fatalf("fourth attempt points = %d, want 1", res.Points)
	}
	if agg := s.Aggregate(); agg.TotalPoints != 1 || agg.Percentage != 100 {
		t.Fatalf("aggregate = %+v", agg)
	}
}

// Random walks through sessions check the queue, attempt and re-queue invariants.
func TestRandomSessions(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s := mustInit(t, makeCards(1+rng.Intn(12)), Options{Rand: rng})

		submitted := make(map[string]int)
		var sequence []RatingResult

		for step := 0; !s.Done(); step++ {
			if step > 1000 {
				t.Fatalf("seed %d: session did not finish", seed)
			}

			id, _ := s.Current()
			pos, lenBefore := s.Position(), len(s.Queue())
			q := entities.Quality(rng.Intn(6))

			res := mustRate(t, s, id, q)
			submitted[id]++
			sequence = append(sequence, res)

			st, _ := s.State(id)
			if st.Attempts != submitted[id] {
				t.Fatalf("seed %d: attempts[%s] = %d, want %d", seed, id, st.Attempts, submitted[id])
			}
			if st.PendingReview != (q < entities.PassThreshold) {
				t.Fatalf("seed %d: pending review = %v after quality %d", seed, st.PendingReview, q)
			}

			if res.Requeued {
				lo, hi := pos+2, min(pos+5, lenBefore)
				if lenBefore-pos < 2 {
					lo, hi = lenBefore, lenBefore
				}
				if res.RequeuedAt < lo || res.RequeuedAt > hi {
					t.Fatalf("seed %d: requeued at %d, want within [%d, %d]", seed, res.RequeuedAt, lo, hi)
				}
				if s.Queue()[res.RequeuedAt] != id {
					t.Fatalf("seed %d: queue[%d] = %s, want %s", seed, res.RequeuedAt, s.Queue()[res.RequeuedAt], id)
				}
			}

			agg := s.Aggregate()
			notYetCorrect := 0
			for _, wid := range s.WorkingSet() {
				if st, _ := s.State(wid); !st.Mastered() {
					notYetCorrect++
				}
			}
			if agg.Mastered+notYetCorrect != agg.WorkingSetSize {
				t.Fatalf("seed %d: mastered %d + not yet correct %d != %d", seed, agg.Mastered, notYetCorrect, agg.WorkingSetSize)
			}

			mustAdvance(t, s)
		}

		agg := s.Aggregate()
		if agg.Percentage != 100 || agg.PendingReview != 0 {
			t.Fatalf("seed %d: finished session aggregate = %+v", seed, agg)
		}

		want := 0
		for _, r := range sequence {
			want += r.Points
		}
		if agg.TotalPoints != want {
			t.Fatalf("seed %d: total points = %d, want %d", seed, agg.TotalPoints, want)
		}
	}
}

func TestExpand(t *testing.T) {
	s := mustInit(t, makeCards(2), Options{Rand: fixedRand{}})
	extra := makeCards(4)[2:]

	added, err := s.Expand(extra)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !slices.Equal(added, []string{"c3", "c4"}) {
		t.Fatalf("added = %v", added)
	}
	if !slices.Equal(s.Queue(), []string{"c1", "c2", "c3", "c4"}) {
		t.Fatalf("queue = %v", s.Queue())
	}

	if _, err := s.Expand(makeCards(1)); !errors.Is(err, entities.ErrDuplicateCard) {
		t.Fatalf("err = %v, want ErrDuplicateCard", err)
	}

	for _, id := range s.Queue() {
		res := mustRate(t, s, id, entities.QualityPerfect)
		if st, _ := s.State(id); st.Extra && res.Points != 0 {
			t.Fatalf("extra card %s earned %d points", id, res.Points)
		}
		mustAdvance(t, s)
	}

	want := entities.SessionAggregate{WorkingSetSize: 2, Mastered: 2, Percentage: 100, TotalPoints: 20}
	if got := s.Aggregate(); got != want {
		t.Fatalf("aggregate = %+v, want %+v", got, want)
	}
}

func TestAggregate(t *testing.T) {
	pass, fail := entities.QualityEasy, entities.QualityWrong
	states := map[string]entities.CardSessionState{
		"a": {Answered: true, LastQuality: &pass, Attempts: 1, Points: 10},
		"b": {Answered: false, LastQuality: &fail, Attempts: 1, PendingReview: true},
		"c": {},
		"x": {Answered: true, LastQuality: &pass, Attempts: 1, Points: 10, Extra: true},
	}
	working := []string{"a", "b", "c"}

	want := entities.SessionAggregate{WorkingSetSize: 3, Mastered: 1, PendingReview: 1, Percentage: 33, TotalPoints: 10}
	got := Aggregate(states, working)
	if got != want {
		t.Fatalf("Aggregate = %+v, want %+v", got, want)
	}
	if again := Aggregate(states, working); again != got {
		t.Fatalf("second call = %+v, want %+v", again, got)
	}

	if empty := Aggregate(states, nil); empty.Percentage != 0 || empty.WorkingSetSize != 0 {
		t.Fatalf("empty aggregate = %+v", empty)
	}
}

func TestMetrics(t *testing.T) {
	s := mustInit(t, makeCards(3), Options{Rand: fixedRand{}})
	mustRate(t, s, "c1", entities.QualityPerfect)
	mustAdvance(t, s)
	mustRate(t, s, "c2", entities.QualityForgot)

	metrics := s.Metrics()
	if len(metrics) != 3 {
		t.Fatalf("len(metrics) = %d, want 3", len(metrics))
	}

	tests := []struct {
		id       string
		outcome  entities.CardOutcome
		attempts int
		hint     time.Duration
	}{
		{"c1", entities.OutcomeMastered, 1, 6 * 24 * time.Hour},
		{"c2", entities.OutcomeIncomplete, 1, 10 * time.Minute},
		{"c3", entities.OutcomeUnseen, 0, 10 * time.Minute},
	}
	for i, tt := range tests {
		m := metrics[i]
		if m.CardID != tt.id || m.Outcome != tt.outcome || m.Attempts != tt.attempts || m.NextReviewHint != tt.hint {
			t.Errorf("metrics[%d] = %+v, want %s/%s/%d/%v", i, m, tt.id, tt.outcome, tt.attempts, tt.hint)
		}
		if (m.LastAttemptAt == nil) != (tt.attempts == 0) {
			t.Errorf("metrics[%d].LastAttemptAt = %v", i, m.LastAttemptAt)
		}
	}
}
