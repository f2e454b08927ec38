package postgres

import (
	"context"
	"errors"
	"fmt"

	"riddle-game-service/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the durable riddle/player store. Score and hint mutations are
// single-statement relative updates so concurrent requests cannot lose
// writes or drive a balance negative.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const riddleColumns = `id, question, answer, category, COALESCE(explanation, '')`

// SelectRandom picks one riddle uniformly at random among all riddles whose
// category matches after trimming and case folding.
func (s *Store) SelectRandom(ctx context.Context, category string) (domain.Riddle, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+riddleColumns+` FROM riddles
		 WHERE lower(btrim(category)) = lower(btrim($1))
		 ORDER BY random() LIMIT 1`, category)
	riddle, err := scanRiddle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Riddle{}, domain.ErrNoRiddles
	}
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("select random riddle: %w", err)
	}
	return riddle, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (domain.Riddle, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+riddleColumns+` FROM riddles WHERE id = $1`, id)
	riddle, err := scanRiddle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Riddle{}, domain.ErrRiddleNotFound
	}
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("get riddle: %w", err)
	}
	return riddle, nil
}

// ListIDs returns every riddle id in the category; the redis cache builds
// its category sets from this.
func (s *Store) ListIDs(ctx context.Context, category string) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM riddles WHERE lower(btrim(category)) = lower(btrim($1))`, category)
	if err != nil {
		return nil, fmt.Errorf("list riddle ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan riddle id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Create(ctx context.Context, riddle domain.Riddle) (domain.Riddle, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO riddles (question, answer, category, explanation)
		 VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`,
		riddle.Question, riddle.Answer, riddle.Category, riddle.Explanation).Scan(&riddle.ID)
	if err != nil {
		return domain.Riddle{}, fmt.Errorf("create riddle: %w", err)
	}
	return riddle, nil
}

func (s *Store) Update(ctx context.Context, riddle domain.Riddle) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE riddles SET question = $1, answer = $2, category = $3, explanation = NULLIF($4, '')
		 WHERE id = $5`,
		riddle.Question, riddle.Answer, riddle.Category, riddle.Explanation, riddle.ID)
	if err != nil {
		return fmt.Errorf("update riddle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRiddleNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM riddles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete riddle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRiddleNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Riddle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+riddleColumns+` FROM riddles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list riddles: %w", err)
	}
	defer rows.Close()

	var out []domain.Riddle
	for rows.Next() {
		riddle, err := scanRiddle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan riddle: %w", err)
		}
		out = append(out, riddle)
	}
	return out, rows.Err()
}

// Upsert registers the player or refreshes the display name, in one
// conditional write so concurrent first contacts cannot race.
func (s *Store) Upsert(ctx context.Context, playerID, displayName string, initialHints int) (domain.Player, error) {
	var player domain.Player
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (id, display_name, score, hints)
		 VALUES ($1, $2, 0, $3)
		 ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
		 RETURNING id, display_name, score, hints`,
		playerID, displayName, initialHints).
		Scan(&player.ID, &player.DisplayName, &player.Score, &player.Hints)
	if err != nil {
		return domain.Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return player, nil
}

func (s *Store) Get(ctx context.Context, playerID string) (domain.Player, error) {
	var player domain.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, display_name, score, hints FROM players WHERE id = $1`, playerID).
		Scan(&player.ID, &player.DisplayName, &player.Score, &player.Hints)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("get player: %w", err)
	}
	return player, nil
}

func (s *Store) GrantHints(ctx context.Context, playerID string, amount int) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx,
		`UPDATE players SET hints = hints + $2 WHERE id = $1 RETURNING hints`,
		playerID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("grant hints: %w", err)
	}
	return balance, nil
}

// DebitHints decrements only when the balance covers the amount, guarded in
// the UPDATE itself so concurrent debits can never go negative.
func (s *Store) DebitHints(ctx context.Context, playerID string, amount int) (int, bool, error) {
	var balance int
	err := s.pool.QueryRow(ctx,
		`UPDATE players SET hints = hints - $2 WHERE id = $1 AND hints >= $2 RETURNING hints`,
		playerID, amount).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("debit hints: %w", err)
	}
	// Either the player is unknown or the balance is short; look to see which.
	player, err := s.Get(ctx, playerID)
	if err != nil {
		return 0, false, err
	}
	return player.Hints, false, nil
}

// SolveAndAward records the (player, riddle) pair and credits the points in
// one statement, so a failure can never leave the solve flag behind without
// the score credit. The primary key makes the first insert win; replays add
// zero.
func (s *Store) SolveAndAward(ctx context.Context, playerID string, riddleID int64, points int) (bool, int, error) {
	var (
		score int
		first bool
	)
	err := s.pool.QueryRow(ctx,
		`WITH ins AS (
		     INSERT INTO solved_riddles (player_id, riddle_id) VALUES ($1, $2)
		     ON CONFLICT DO NOTHING
		     RETURNING 1
		 ), upd AS (
		     UPDATE players
		     SET score = score + CASE WHEN EXISTS (SELECT 1 FROM ins) THEN $3 ELSE 0 END
		     WHERE id = $1
		     RETURNING score
		 )
		 SELECT score, EXISTS (SELECT 1 FROM ins) FROM upd`,
		playerID, riddleID, points).Scan(&score, &first)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, 0, domain.ErrPlayerNotFound
		}
		return false, 0, fmt.Errorf("solve and award: %w", err)
	}
	return first, score, nil
}

// Rank counts players with strictly greater scores against the live table;
// ties share a rank.
func (s *Store) Rank(ctx context.Context, playerID string) (int, error) {
	var rank int
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM players q WHERE q.score > p.score) + 1
		 FROM players p WHERE p.id = $1`, playerID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("rank player: %w", err)
	}
	return rank, nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.display_name, p.score,
		        (SELECT count(*) FROM players q WHERE q.score > p.score) + 1
		 FROM players p
		 ORDER BY p.score DESC, p.display_name ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.Score, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanRiddle(row pgx.Row) (domain.Riddle, error) {
	var r domain.Riddle
	err := row.Scan(&r.ID, &r.Question, &r.Answer, &r.Category, &r.Explanation)
	return r, err
}
