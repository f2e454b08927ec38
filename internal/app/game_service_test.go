package app_test

import (
	"context"
	"errors"
	"testing"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/config"
	"riddle-game-service/internal/domain"
	"riddle-game-service/internal/infra/memory"
)

func testRules() config.Rules {
	return config.Rules{InitialHints: 3, PointsPerCorrect: 10, HintGrant: 1, LeaderboardSize: 10}
}

func newTestService(rules config.Rules) *app.GameService {
	riddles := memory.NewRiddleStore(
		domain.Riddle{ID: 5, Question: "Fortified home of a king?", Answer: "CASTLE", Category: "easy"},
		domain.Riddle{ID: 6, Question: "Liquid rock?", Answer: "LAVA", Category: " Hard ", Explanation: "Molten rock above ground is lava."},
	)
	return app.NewGameService(riddles, memory.NewPlayerStore(), rules, app.NewHub(), nil)
}

func TestStartSessionUpsert(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())

	state, err := service.StartSession(ctx, "p1", "Alice")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if state.Hints != 3 || state.Score != 0 || state.Rank != 1 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	// Earn some score, then re-contact under a new name.
	if _, err := service.SubmitAnswer(ctx, "p1", 5, "castle"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	state, err = service.StartSession(ctx, "p1", "Alicia")
	if err != nil {
		t.Fatalf("restart session: %v", err)
	}
	if state.Score != 10 {
		t.Fatalf("re-contact must not reset score, got %d", state.Score)
	}
	if state.Hints != 3 {
		t.Fatalf("re-contact must not reset hints, got %d", state.Hints)
	}
}

func TestSubmitAnswerAwardsOnce(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := service.SubmitAnswer(ctx, "p1", 5, " castle ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.Awarded != 10 || result.TotalScore != 10 {
		t.Fatalf("expected first solve to award 10, got %+v", result)
	}
	if result.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", result.Rank)
	}

	// Same riddle again: still correct, no extra points.
	result, err = service.SubmitAnswer(ctx, "p1", 5, "CASTLE")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !result.Correct || result.Awarded != 0 || result.TotalScore != 10 {
		t.Fatalf("expected replay to award nothing, got %+v", result)
	}
}

func TestSubmitAnswerIncorrect(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := service.SubmitAnswer(ctx, "p1", 5, "palace")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct || result.Awarded != 0 || result.TotalScore != 0 {
		t.Fatalf("expected incorrect with no award, got %+v", result)
	}
}

func TestSubmitAnswerUnknownRiddle(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := service.SubmitAnswer(ctx, "p1", 999, "whatever")
	if !errors.Is(err, domain.ErrRiddleNotFound) {
		t.Fatalf("expected ErrRiddleNotFound, got %v", err)
	}
}

func TestNextRiddleObfuscates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())

	card, err := service.NextRiddle(ctx, "  EASY ")
	if err != nil {
		t.Fatalf("next riddle: %v", err)
	}
	if card.RiddleID != 5 {
		t.Fatalf("expected the easy riddle, got %+v", card)
	}
	if card.AnswerLength != len("CASTLE") {
		t.Fatalf("expected answer length %d, got %d", len("CASTLE"), card.AnswerLength)
	}
}

func TestNextRiddleEmptyCategory(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())

	_, err := service.NextRiddle(ctx, "impossible")
	if !errors.Is(err, domain.ErrNoRiddles) {
		t.Fatalf("expected ErrNoRiddles, got %v", err)
	}
}

func TestRevealReturnsExplanation(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())

	revealed, err := service.Reveal(ctx, 6)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if revealed.Answer != "LAVA" || revealed.Explanation == "" {
		t.Fatalf("expected answer and explanation, got %+v", revealed)
	}
}

func TestHintBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := service.UseHint(ctx, "p1")
		if err != nil {
			t.Fatalf("use hint: %v", err)
		}
		if !result.Used {
			t.Fatalf("debit %d should succeed", i)
		}
	}

	// Balance is now zero; further debits are soft no-ops.
	result, err := service.UseHint(ctx, "p1")
	if err != nil {
		t.Fatalf("use hint at zero: %v", err)
	}
	if result.Used || result.Hints != 0 {
		t.Fatalf("expected refused debit with balance 0, got %+v", result)
	}

	granted, err := service.GrantHints(ctx, "p1")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if granted.Granted != 1 || granted.Hints != 1 {
		t.Fatalf("expected a credit of 1 to balance 1, got %+v", granted)
	}
}

func TestTiedPlayersShareRankOne(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	for _, id := range []string{"p1", "p2"} {
		if _, err := service.StartSession(ctx, id, id); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
		result, err := service.SubmitAnswer(ctx, id, 5, "castle")
		if err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
		if result.Rank != 1 {
			t.Fatalf("expected %s at rank 1, got %d", id, result.Rank)
		}
	}

	state, err := service.StartSession(ctx, "p1", "p1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if state.Rank != 1 {
		t.Fatalf("tied players must share rank 1, got %d", state.Rank)
	}
}

func TestDegradedStartFallback(t *testing.T) {
	ctx := context.Background()
	rules := testRules()
	riddles := memory.NewRiddleStore()

	// Fallback off: the store failure propagates.
	service := app.NewGameService(riddles, failingPlayers{}, rules, app.NewHub(), nil)
	if _, err := service.StartSession(ctx, "p1", "Alice"); err == nil {
		t.Fatalf("expected store error to propagate")
	}

	// Fallback on: a flagged default state is served instead.
	rules.DegradedStart = true
	service = app.NewGameService(riddles, failingPlayers{}, rules, app.NewHub(), nil)
	state, err := service.StartSession(ctx, "p1", "Alice")
	if err != nil {
		t.Fatalf("expected degraded state, got error: %v", err)
	}
	if !state.Degraded || state.Hints != 3 || state.Rank != 0 {
		t.Fatalf("unexpected degraded state: %+v", state)
	}
}

func TestSubmitAnswerFailedAwardLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	riddles := memory.NewRiddleStore(
		domain.Riddle{ID: 5, Question: "Fortified home of a king?", Answer: "CASTLE", Category: "easy"},
	)
	players := &flakyPlayers{PlayerStore: memory.NewPlayerStore(), failures: 1}
	service := app.NewGameService(riddles, players, testRules(), app.NewHub(), nil)
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := service.SubmitAnswer(ctx, "p1", 5, "castle"); err == nil {
		t.Fatalf("expected the first submit to fail")
	}

	// The failed request must not leave the solve recorded without its
	// points: a retry still awards in full.
	result, err := service.SubmitAnswer(ctx, "p1", 5, "castle")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Awarded != 10 || result.TotalScore != 10 {
		t.Fatalf("retry after store failure must still award, got %+v", result)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(testRules())
	if _, err := service.StartSession(ctx, "p1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	updates, cancel := service.Subscribe(ctx)
	defer cancel()
	<-updates // initial snapshot

	if _, err := service.SubmitAnswer(ctx, "p1", 5, "castle"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	entries := <-updates
	if len(entries) != 1 || entries[0].Score != 10 || entries[0].Rank != 1 {
		t.Fatalf("expected updated leaderboard, got %+v", entries)
	}
}

var errStoreDown = errors.New("store unavailable")

// flakyPlayers fails the first n award attempts before letting the
// backing store take over.
type flakyPlayers struct {
	*memory.PlayerStore
	failures int
}

func (f *flakyPlayers) SolveAndAward(ctx context.Context, playerID string, riddleID int64, points int) (bool, int, error) {
	if f.failures > 0 {
		f.failures--
		return false, 0, errStoreDown
	}
	return f.PlayerStore.SolveAndAward(ctx, playerID, riddleID, points)
}

// failingPlayers simulates an unreachable store.
type failingPlayers struct{}

func (failingPlayers) Upsert(context.Context, string, string, int) (domain.Player, error) {
	return domain.Player{}, errStoreDown
}
func (failingPlayers) Get(context.Context, string) (domain.Player, error) {
	return domain.Player{}, errStoreDown
}
func (failingPlayers) GrantHints(context.Context, string, int) (int, error) { return 0, errStoreDown }
func (failingPlayers) DebitHints(context.Context, string, int) (int, bool, error) {
	return 0, false, errStoreDown
}
func (failingPlayers) SolveAndAward(context.Context, string, int64, int) (bool, int, error) {
	return false, 0, errStoreDown
}
func (failingPlayers) Rank(context.Context, string) (int, error) { return 0, errStoreDown }
func (failingPlayers) Leaderboard(context.Context, int) ([]domain.LeaderboardEntry, error) {
	return nil, errStoreDown
}
