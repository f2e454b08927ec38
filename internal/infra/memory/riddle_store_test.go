package memory

import (
	"context"
	"errors"
	"testing"

	"riddle-game-service/internal/domain"
)

func TestSelectRandomMatchesNormalizedCategory(t *testing.T) {
	ctx := context.Background()
	store := NewRiddleStore(
		domain.Riddle{ID: 1, Question: "q1", Answer: "A1", Category: " Easy "},
		domain.Riddle{ID: 2, Question: "q2", Answer: "A2", Category: "easy"},
		domain.Riddle{ID: 3, Question: "q3", Answer: "A3", Category: "hard"},
	)

	// Every draw must come from the easy set, in any formatting of the label.
	for i := 0; i < 20; i++ {
		riddle, err := store.SelectRandom(ctx, "EASY  ")
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if riddle.ID != 1 && riddle.ID != 2 {
			t.Fatalf("got riddle from the wrong category: %+v", riddle)
		}
	}
}

func TestSelectRandomEmptyCategory(t *testing.T) {
	store := NewRiddleStore(domain.Riddle{ID: 1, Question: "q", Answer: "A", Category: "easy"})
	_, err := store.SelectRandom(context.Background(), "geography")
	if !errors.Is(err, domain.ErrNoRiddles) {
		t.Fatalf("expected ErrNoRiddles, got %v", err)
	}
}

func TestCreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store := NewRiddleStore(domain.Riddle{ID: 7, Question: "q", Answer: "A", Category: "easy"})

	created, err := store.Create(ctx, domain.Riddle{Question: "q2", Answer: "B", Category: "easy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 8 {
		t.Fatalf("expected id 8 after seed id 7, got %d", created.ID)
	}

	riddles, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(riddles) != 2 || riddles[0].ID != 7 || riddles[1].ID != 8 {
		t.Fatalf("expected ordered list, got %+v", riddles)
	}
}

func TestListIDs(t *testing.T) {
	store := NewRiddleStore(
		domain.Riddle{ID: 1, Question: "q1", Answer: "A1", Category: "easy"},
		domain.Riddle{ID: 2, Question: "q2", Answer: "A2", Category: "Easy"},
	)
	ids, err := store.ListIDs(context.Background(), "easy")
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}
