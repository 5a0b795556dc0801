package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

func writeDeck(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDeckRepository(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "b.json", `{"id":"go","title":"Go basics","cards":[
		{"id":"g1","question":"Zero value of int?","answer":"0"},
		{"id":"g2","question":"Keyword for goroutines?","answer":"go","category":"concurrency"}
	]}`)
	writeDeck(t, dir, "a.json", `{"id":"sql","title":"SQL","cards":[
		{"id":"s1","question":"Remove rows?","answer":"DELETE","difficulty":"easy"}
	]}`)
	writeDeck(t, dir, "notes.txt", "ignored")

	repo, err := NewDeckRepository(dir)
	if err != nil {
		t.Fatalf("NewDeckRepository: %v", err)
	}

	all, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 || all[0].ID != "sql" || all[1].ID != "go" {
		t.Fatalf("GetAll = %v", all)
	}

	deck, err := repo.GetByID(context.Background(), "go")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(deck.Cards) != 2 || deck.Cards[1].Category != "concurrency" {
		t.Fatalf("deck = %+v", deck)
	}

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, entities.ErrDeckNotFound) {
		t.Fatalf("err = %v, want ErrDeckNotFound", err)
	}
}

func TestDeckRepositoryRejectsInvalidDecks(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing card id", `{"id":"d","title":"D","cards":[{"question":"q","answer":"a"}]}`},
		{"missing title", `{"id":"d","cards":[]}`},
		{"duplicate card", `{"id":"d","title":"D","cards":[{"id":"x","question":"q","answer":"a"},{"id":"x","question":"q2","answer":"a2"}]}`},
		{"colon in card id", `{"id":"d","title":"D","cards":[{"id":"x:1","question":"q","answer":"a"}]}`},
		{"colon in deck id", `{"id":"go:basics","title":"D","cards":[{"id":"x","question":"q","answer":"a"}]}`},
		{"non-ascii card id", `{"id":"d","title":"D","cards":[{"id":"вопрос","question":"q","answer":"a"}]}`},
		{"non-ascii deck id", `{"id":"колода","title":"D","cards":[]}`},
		{"card id too long", `{"id":"d","title":"D","cards":[{"id":"abcdefghijklmnopqrstuvwxyz0123456","question":"q","answer":"a"}]}`},
		{"broken json", `{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDeck(t, dir, "deck.json", tt.body)
			if _, err := NewDeckRepository(dir); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDeckRepositoryDuplicateDeck(t *testing.T) {
	dir := t.TempDir()
	body := `{"id":"d","title":"D","cards":[{"id":"x","question":"q","answer":"a"}]}`
	writeDeck(t, dir, "one.json", body)
	writeDeck(t, dir, "two.json", body)

	if _, err := NewDeckRepository(dir); !errors.Is(err, ErrDuplicateDeck) {
		t.Fatalf("err = %v, want ErrDuplicateDeck", err)
	}
}
