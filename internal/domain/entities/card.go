// Package entities contains domain entities used across the application.
package entities

// Card represents a single flashcard of a deck.
// Cards are owned by the deck and are read-only to a study session.
// Card and deck ids travel in Telegram callback data, so they are short
// printable ASCII without ':' separators.
type Card struct {
	ID              string `json:"id" validate:"required,max=32,printascii,excludes=:"` // stable identifier, unique within a deck
	Question        string `json:"question" validate:"required"`                        // prompt shown on the front side
	Answer          string `json:"answer" validate:"required"`                          // text shown on the back side
	PracticeExample string `json:"practice_example,omitempty"`                          // optional usage example
	Category        string `json:"category,omitempty"`                                  // free-form category label
	Difficulty      string `json:"difficulty,omitempty"`                                // difficulty label, e.g. "easy"
}

// Deck is an ordered list of cards studied together.
type Deck struct {
	ID    string `json:"id" validate:"required,max=32,printascii,excludes=:"`
	Title string `json:"title" validate:"required"`
	Cards []Card `json:"cards" validate:"dive"`
}

// CardIDs returns the identifiers of the deck's cards in deck order.
func (d *Deck) CardIDs() []string {
	ids := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// CardByID looks up a card by identifier.
func (d *Deck) CardByID(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
