package repository

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// SkillRatingRepository implements skill rating data access
type SkillRatingRepository struct {
	q Queryable
}

// NewSkillRatingRepositoryScoped creates a new skill rating repository bound to a transaction
func NewSkillRatingRepositoryScoped(tx Queryable) interfaces.SkillRatingRepository {
	return &SkillRatingRepository{q: tx}
}

// Get returns a user's rating for a game, or nil if they have none
func (r *SkillRatingRepository) Get(ctx context.Context, userID int64, game string) (*entities.SkillRating, error) {
	query := `
		SELECT user_id, game, rating, matches_played, wins, losses, updated_at
		FROM skill_ratings
		WHERE user_id = $1 AND game = $2
	`
	var rating entities.SkillRating
	err := r.q.QueryRow(ctx, query, userID, game).Scan(
		&rating.UserID,
		&rating.Game,
		&rating.Rating,
		&rating.MatchesPlayed,
		&rating.Wins,
		&rating.Losses,
		&rating.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating for user %d in %s: %w", userID, game, err)
	}
	return &rating, nil
}

// GetMany returns existing ratings for the users keyed by user id
func (r *SkillRatingRepository) GetMany(ctx context.Context, userIDs []int64, game string) (map[int64]*entities.SkillRating, error) {
	ratings := make(map[int64]*entities.SkillRating, len(userIDs))
	if len(userIDs) == 0 {
		return ratings, nil
	}

	query := `
		SELECT user_id, game, rating, matches_played, wins, losses, updated_at
		FROM skill_ratings
		WHERE user_id = ANY($1) AND game = $2
	`
	rows, err := r.q.Query(ctx, query, userIDs, game)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings for %s: %w", game, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating entities.SkillRating
		if err := rows.Scan(
			&rating.UserID,
			&rating.Game,
			&rating.Rating,
			&rating.MatchesPlayed,
			&rating.Wins,
			&rating.Losses,
			&rating.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings[rating.UserID] = &rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return ratings, nil
}

// Upsert writes a rating
func (r *SkillRatingRepository) Upsert(ctx context.Context, rating *entities.SkillRating) error {
	query := `
		INSERT INTO skill_ratings (user_id, game, rating, matches_played, wins, losses)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, game) DO UPDATE SET
			rating = EXCLUDED.rating,
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		rating.UserID,
		rating.Game,
		rating.Rating,
		rating.MatchesPlayed,
		rating.Wins,
		rating.Losses,
	).Scan(&rating.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rating for user %d in %s: %w", rating.UserID, rating.Game, err)
	}
	return nil
}
