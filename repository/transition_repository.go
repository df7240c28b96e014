package repository

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TransitionRepository implements the durable change feed
type TransitionRepository struct {
	q Queryable
}

// NewTransitionRepositoryScoped creates a new transition repository bound to a transaction
func NewTransitionRepositoryScoped(tx Queryable) interfaces.TransitionRepository {
	return &TransitionRepository{q: tx}
}

const transitionColumns = `id, wager_id, transition_type, from_status, to_status, dispute_status, terminal, actor_id, created_at`

// Append inserts a transition
func (r *TransitionRepository) Append(ctx context.Context, transition *entities.WagerTransition) error {
	query := `
		INSERT INTO wager_transitions
		(wager_id, transition_type, from_status, to_status, dispute_status, terminal, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		transition.WagerID,
		string(transition.TransitionType),
		string(transition.FromStatus),
		string(transition.ToStatus),
		string(transition.DisputeStatus),
		transition.Terminal,
		transition.ActorID,
	).Scan(&transition.ID, &transition.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append %s transition for wager %d: %w", transition.TransitionType, transition.WagerID, err)
	}
	return nil
}

// ListAfter returns transitions with id greater than afterID in id order
func (r *TransitionRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.WagerTransition, error) {
	query := `SELECT ` + transitionColumns + ` FROM wager_transitions WHERE id > $1 ORDER BY id ASC LIMIT $2`
	return r.list(ctx, query, afterID, limit)
}

// ListByWager returns a wager's transitions in id order
func (r *TransitionRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.WagerTransition, error) {
	query := `SELECT ` + transitionColumns + ` FROM wager_transitions WHERE wager_id = $1 ORDER BY id ASC`
	return r.list(ctx, query, wagerID)
}

func (r *TransitionRepository) list(ctx context.Context, query string, args ...any) ([]*entities.WagerTransition, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*entities.WagerTransition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}
	return transitions, nil
}

func scanTransition(row pgx.Row) (*entities.WagerTransition, error) {
	var t entities.WagerTransition
	var transitionType, from, to, dispute string
	err := row.Scan(
		&t.ID,
		&t.WagerID,
		&transitionType,
		&from,
		&to,
		&dispute,
		&t.Terminal,
		&t.ActorID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TransitionType = entities.TransitionType(transitionType)
	t.FromStatus = entities.WagerStatus(from)
	t.ToStatus = entities.WagerStatus(to)
	t.DisputeStatus = entities.DisputeStatus(dispute)
	return &t, nil
}
