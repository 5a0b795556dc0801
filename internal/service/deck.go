package service

import (
	"context"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

type DeckService struct {
	repository DeckRepository
}

func NewDeckService(repository DeckRepository) *DeckService {
	return &DeckService{repository: repository}
}

func (s *DeckService) GetByID(ctx context.Context, deckID string) (*entities.Deck, error) {
	return s.repository.GetByID(ctx, deckID)
}

func (s *DeckService) GetAll(ctx context.Context) ([]*entities.Deck, error) {
	return s.repository.GetAll(ctx)
}
