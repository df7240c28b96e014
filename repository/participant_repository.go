package repository

import (
	"context"
	"fmt"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"
)

// ParticipantRepository implements participant data access
type ParticipantRepository struct {
	q Queryable
}

// NewParticipantRepositoryScoped creates a new participant repository bound to a transaction
func NewParticipantRepositoryScoped(tx Queryable) interfaces.ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// ListByWager returns every participant row for a wager ordered by user id
func (r *ParticipantRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.Participant, error) {
	query := `
		SELECT wager_id, user_id, stake_paid, status, joined_at, left_at
		FROM wager_participants
		WHERE wager_id = $1
		ORDER BY user_id ASC
	`
	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var participants []*entities.Participant
	for rows.Next() {
		var p entities.Participant
		var status string
		if err := rows.Scan(&p.WagerID, &p.UserID, &p.StakePaid, &status, &p.JoinedAt, &p.LeftAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Status = entities.ParticipantStatus(status)
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// Upsert inserts a participant, or reactivates the row of a user who left earlier
func (r *ParticipantRepository) Upsert(ctx context.Context, participant *entities.Participant) error {
	if participant.Status == "" {
		participant.Status = entities.ParticipantStatusActive
	}

	query := `
		INSERT INTO wager_participants (wager_id, user_id, stake_paid, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wager_id, user_id) DO UPDATE SET
			stake_paid = EXCLUDED.stake_paid,
			status = EXCLUDED.status,
			joined_at = NOW(),
			left_at = NULL
		RETURNING joined_at
	`
	err := r.q.QueryRow(ctx, query,
		participant.WagerID,
		participant.UserID,
		participant.StakePaid,
		string(participant.Status),
	).Scan(&participant.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to save participant %d for wager %d: %w", participant.UserID, participant.WagerID, err)
	}
	participant.LeftAt = nil
	return nil
}

// UpdateStatus changes a participant's status, stamping left_at when they stop being active
func (r *ParticipantRepository) UpdateStatus(ctx context.Context, wagerID, userID int64, status entities.ParticipantStatus, at time.Time) error {
	query := `
		UPDATE wager_participants
		SET status = $3,
		    left_at = CASE WHEN $3 = 'active' THEN NULL ELSE $4::TIMESTAMPTZ END
		WHERE wager_id = $1 AND user_id = $2
	`
	result, err := r.q.Exec(ctx, query, wagerID, userID, string(status), at)
	if err != nil {
		return fmt.Errorf("failed to update participant %d in wager %d: %w", userID, wagerID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found in wager %d", userID, wagerID)
	}
	return nil
}
