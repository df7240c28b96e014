package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"
)

// FraudFlagRepository implements fraud flag data access
type FraudFlagRepository struct {
	q Queryable
}

// NewFraudFlagRepositoryScoped creates a new fraud flag repository bound to a transaction
func NewFraudFlagRepositoryScoped(tx Queryable) interfaces.FraudFlagRepository {
	return &FraudFlagRepository{q: tx}
}

// Create inserts a flag
func (r *FraudFlagRepository) Create(ctx context.Context, flag *entities.FraudFlag) error {
	details := flag.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal fraud flag details: %w", err)
	}

	query := `
		INSERT INTO fraud_flags (wager_id, user_id, signal, severity, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = r.q.QueryRow(ctx, query,
		flag.WagerID,
		flag.UserID,
		string(flag.Signal),
		string(flag.Severity),
		detailsJSON,
	).Scan(&flag.ID, &flag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s flag for wager %d: %w", flag.Signal, flag.WagerID, err)
	}
	return nil
}

// ListByWager returns every flag for a wager in creation order
func (r *FraudFlagRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.FraudFlag, error) {
	query := `
		SELECT id, wager_id, user_id, signal, severity, details, created_at
		FROM fraud_flags
		WHERE wager_id = $1
		ORDER BY id ASC
	`
	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud flags for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var flags []*entities.FraudFlag
	for rows.Next() {
		var flag entities.FraudFlag
		var signal, severity string
		var detailsJSON []byte
		if err := rows.Scan(
			&flag.ID,
			&flag.WagerID,
			&flag.UserID,
			&signal,
			&severity,
			&detailsJSON,
			&flag.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fraud flag: %w", err)
		}
		flag.Signal = entities.FraudSignal(signal)
		flag.Severity = entities.FraudSeverity(severity)
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &flag.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fraud flag details: %w", err)
			}
		}
		flags = append(flags, &flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fraud flags: %w", err)
	}
	return flags, nil
}
