package app

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"riddle-game-service/internal/config"
	"riddle-game-service/internal/domain"
)

// RiddleRepository abstracts how riddles are read (Postgres, Redis cache,
// in-memory).
type RiddleRepository interface {
	// SelectRandom returns one riddle from the category, uniformly at
	// random; domain.ErrNoRiddles when the category is empty.
	SelectRandom(ctx context.Context, category string) (domain.Riddle, error)
	GetByID(ctx context.Context, id int64) (domain.Riddle, error)
}

// PlayerRepository abstracts the durable player state. All mutations are
// relative updates performed atomically by the store; the service never does
// read-then-overwrite.
type PlayerRepository interface {
	// Upsert registers the player on first contact or refreshes the display
	// name on re-contact. Score and hints are never reset by re-contact.
	Upsert(ctx context.Context, playerID, displayName string, initialHints int) (domain.Player, error)
	Get(ctx context.Context, playerID string) (domain.Player, error)
	GrantHints(ctx context.Context, playerID string, amount int) (int, error)
	// DebitHints decrements only if the balance covers the amount; the
	// second return reports whether the debit took.
	DebitHints(ctx context.Context, playerID string, amount int) (int, bool, error)
	// SolveAndAward records the (player, riddle) solve and credits points in
	// one atomic store operation: either both take or neither does. The
	// first return is true only the first time the pair is seen; replays
	// leave the score untouched. The second return is the resulting score.
	SolveAndAward(ctx context.Context, playerID string, riddleID int64, points int) (bool, int, error)
	// Rank is 1 + count of players with strictly greater score, computed
	// fresh against the live distribution.
	Rank(ctx context.Context, playerID string) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// GameService sequences a game turn: fetch riddle, check answer, award
// points, move hints. One instance serves all players; everything durable
// lives behind the repositories.
type GameService struct {
	riddles RiddleRepository
	players PlayerRepository
	rules   config.Rules
	hub     *Hub
	log     *slog.Logger
}

func NewGameService(riddles RiddleRepository, players PlayerRepository, rules config.Rules, hub *Hub, log *slog.Logger) *GameService {
	if log == nil {
		log = slog.Default()
	}
	return &GameService{riddles: riddles, players: players, rules: rules, hub: hub, log: log}
}

// StartSession upserts the player and returns their current state. With the
// degraded_start fallback enabled, a store failure yields a flagged default
// state instead of an error so the client stays usable.
func (s *GameService) StartSession(ctx context.Context, playerID, displayName string) (domain.SessionState, error) {
	player, err := s.players.Upsert(ctx, playerID, displayName, s.rules.InitialHints)
	if err != nil {
		return s.degradedState(playerID, err)
	}
	rank, err := s.players.Rank(ctx, playerID)
	if err != nil {
		return s.degradedState(playerID, err)
	}
	s.publishLeaderboard(ctx)
	return domain.SessionState{
		PlayerID: player.ID,
		Hints:    player.Hints,
		Score:    player.Score,
		Rank:     rank,
	}, nil
}

func (s *GameService) degradedState(playerID string, cause error) (domain.SessionState, error) {
	if !s.rules.DegradedStart {
		return domain.SessionState{}, cause
	}
	s.log.Warn("serving degraded session state, store unavailable",
		slog.String("playerId", playerID),
		slog.Bool("degraded", true),
		slog.String("error", cause.Error()))
	return domain.SessionState{
		PlayerID: playerID,
		Hints:    s.rules.InitialHints,
		Degraded: true,
	}, nil
}

// NextRiddle picks a random riddle from the category and returns its
// obfuscated form: the answer is withheld, only its rune length is exposed.
func (s *GameService) NextRiddle(ctx context.Context, category string) (domain.RiddleCard, error) {
	riddle, err := s.riddles.SelectRandom(ctx, category)
	if err != nil {
		return domain.RiddleCard{}, err
	}
	return domain.RiddleCard{
		RiddleID:     riddle.ID,
		Question:     riddle.Question,
		AnswerLength: utf8.RuneCountInString(riddle.Answer),
		Category:     riddle.Category,
	}, nil
}

// SubmitAnswer checks the guess against the stored answer and awards points
// on a correct first solve. Re-solving the same riddle reports correct with
// zero points awarded. An unknown riddle id is a hard error, not a wrong
// guess.
func (s *GameService) SubmitAnswer(ctx context.Context, playerID string, riddleID int64, guess string) (domain.AnswerResult, error) {
	riddle, err := s.riddles.GetByID(ctx, riddleID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	result := domain.AnswerResult{RiddleID: riddleID}
	if !IsCorrect(riddle.Answer, guess) {
		player, err := s.players.Get(ctx, playerID)
		if err != nil {
			return domain.AnswerResult{}, err
		}
		result.TotalScore = player.Score
		result.Rank, err = s.players.Rank(ctx, playerID)
		return result, err
	}
	result.Correct = true

	first, total, err := s.players.SolveAndAward(ctx, playerID, riddleID, s.rules.PointsPerCorrect)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if first {
		result.Awarded = s.rules.PointsPerCorrect
	}
	result.TotalScore = total

	if result.Rank, err = s.players.Rank(ctx, playerID); err != nil {
		return domain.AnswerResult{}, err
	}
	s.publishLeaderboard(ctx)
	return result, nil
}

// Reveal discloses the full answer and explanation. This is the give-up
// escape valve: it is not gated by hint balance or by having answered.
func (s *GameService) Reveal(ctx context.Context, riddleID int64) (domain.Revealed, error) {
	riddle, err := s.riddles.GetByID(ctx, riddleID)
	if err != nil {
		return domain.Revealed{}, err
	}
	return domain.Revealed{
		RiddleID:    riddle.ID,
		Answer:      riddle.Answer,
		Explanation: riddle.Explanation,
	}, nil
}

// UseHint debits one hint. At zero balance the request still succeeds with
// Used=false and the balance untouched.
func (s *GameService) UseHint(ctx context.Context, playerID string) (domain.HintResult, error) {
	balance, used, err := s.players.DebitHints(ctx, playerID, 1)
	if err != nil {
		return domain.HintResult{}, err
	}
	return domain.HintResult{PlayerID: playerID, Hints: balance, Used: used}, nil
}

// GrantHints credits the configured flat reward (one grant per verified ad
// view in the original deployment).
func (s *GameService) GrantHints(ctx context.Context, playerID string) (domain.GrantResult, error) {
	balance, err := s.players.GrantHints(ctx, playerID, s.rules.HintGrant)
	if err != nil {
		return domain.GrantResult{}, err
	}
	return domain.GrantResult{PlayerID: playerID, Hints: balance, Granted: s.rules.HintGrant}, nil
}

// Leaderboard returns the ranked top-N snapshot.
func (s *GameService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.players.Leaderboard(ctx, s.rules.LeaderboardSize)
}

// Subscribe attaches a live leaderboard feed. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *GameService) Subscribe(ctx context.Context) (<-chan []domain.LeaderboardEntry, func()) {
	ch, cancel := s.hub.Subscribe()
	if entries, err := s.players.Leaderboard(ctx, s.rules.LeaderboardSize); err == nil {
		s.hub.send(ch, entries)
	}
	return ch, cancel
}

func (s *GameService) publishLeaderboard(ctx context.Context) {
	if s.hub == nil || s.hub.Empty() {
		return
	}
	entries, err := s.players.Leaderboard(ctx, s.rules.LeaderboardSize)
	if err != nil {
		s.log.Warn("leaderboard broadcast skipped", slog.String("error", err.Error()))
		return
	}
	s.hub.Publish(entries)
}
