package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

var ErrDuplicateDeck = errors.New("duplicate deck id")

// DeckRepository provides access to decks loaded from JSON files.
// Every *.json file in the directory holds one deck.
type DeckRepository struct {
	decks map[string]*entities.Deck
	order []string
}

// NewDeckRepository loads and validates all decks in dir.
func NewDeckRepository(dir string) (*DeckRepository, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list deck files: %w", err)
	}
	slices.Sort(paths)

	validate := validator.New(validator.WithRequiredStructEnabled())

	r := &DeckRepository{decks: make(map[string]*entities.Deck, len(paths))}
	for _, path := range paths {
		deck, err := loadDeck(path, validate)
		if err != nil {
			return nil, err
		}
		if _, ok := r.decks[deck.ID]; ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateDeck, deck.ID, path)
		}
		r.decks[deck.ID] = deck
		r.order = append(r.order, deck.ID)
	}

	return r, nil
}

// GetByID retrieves a deck by its identifier.
func (r *DeckRepository) GetByID(_ context.Context, deckID string) (*entities.Deck, error) {
	deck, ok := r.decks[deckID]
	if !ok {
		return nil, entities.ErrDeckNotFound
	}
	return deck, nil
}

// GetAll retrieves all decks in file name order.
func (r *DeckRepository) GetAll(_ context.Context) ([]*entities.Deck, error) {
	decks := make([]*entities.Deck, 0, len(r.order))
	for _, id := range r.order {
		decks = append(decks, r.decks[id])
	}
	return decks, nil
}

func loadDeck(path string, validate *validator.Validate) (*entities.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var deck entities.Deck
	if err = json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck %s: %w", path, err)
	}

	if err = validate.Struct(&deck); err != nil {
		return nil, fmt.Errorf("invalid deck %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(deck.Cards))
	for _, c := range deck.Cards {
		if _, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("deck %s: %w: %q", path, entities.ErrDuplicateCard, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	return &deck, nil
}
