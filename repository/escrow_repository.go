package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// EscrowRepository implements escrow hold data access
type EscrowRepository struct {
	q Queryable
}

// NewEscrowRepositoryScoped creates a new escrow repository bound to a transaction
func NewEscrowRepositoryScoped(tx Queryable) interfaces.EscrowRepository {
	return &EscrowRepository{q: tx}
}

const escrowColumns = `wager_id, amount, status, platform_fee, released_to, payouts, resolved_at, created_at, updated_at`

// Create inserts the hold for a wager
func (r *EscrowRepository) Create(ctx context.Context, hold *entities.EscrowHold) error {
	if hold.Status == "" {
		hold.Status = entities.EscrowStatusHeld
	}
	payoutsJSON, err := marshalPayouts(hold.Payouts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO escrow_holds (wager_id, amount, status, platform_fee, payouts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = r.q.QueryRow(ctx, query,
		hold.WagerID,
		hold.Amount,
		string(hold.Status),
		hold.PlatformFee,
		payoutsJSON,
	).Scan(&hold.CreatedAt, &hold.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create escrow hold for wager %d: %w", hold.WagerID, err)
	}
	return nil
}

// GetByWagerID retrieves a hold without locking it
func (r *EscrowRepository) GetByWagerID(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_holds WHERE wager_id = $1`
	return r.get(ctx, query, wagerID)
}

// GetForUpdate retrieves a hold and locks its row
func (r *EscrowRepository) GetForUpdate(ctx context.Context, wagerID int64) (*entities.EscrowHold, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_holds WHERE wager_id = $1 FOR UPDATE`
	return r.get(ctx, query, wagerID)
}

func (r *EscrowRepository) get(ctx context.Context, query string, wagerID int64) (*entities.EscrowHold, error) {
	var hold entities.EscrowHold
	var status string
	var payoutsJSON []byte

	err := r.q.QueryRow(ctx, query, wagerID).Scan(
		&hold.WagerID,
		&hold.Amount,
		&status,
		&hold.PlatformFee,
		&hold.ReleasedTo,
		&payoutsJSON,
		&hold.ResolvedAt,
		&hold.CreatedAt,
		&hold.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow hold for wager %d: %w", wagerID, err)
	}

	hold.Status = entities.EscrowStatus(status)
	hold.Payouts = make(map[int64]int64)
	if len(payoutsJSON) > 0 {
		if err := json.Unmarshal(payoutsJSON, &hold.Payouts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal escrow payouts: %w", err)
		}
	}
	return &hold, nil
}

// Update persists amount, status and disposition fields
func (r *EscrowRepository) Update(ctx context.Context, hold *entities.EscrowHold) error {
	payoutsJSON, err := marshalPayouts(hold.Payouts)
	if err != nil {
		return err
	}

	query := `
		UPDATE escrow_holds SET
			amount = $2,
			status = $3,
			platform_fee = $4,
			released_to = $5,
			payouts = $6,
			resolved_at = $7,
			updated_at = NOW()
		WHERE wager_id = $1
		RETURNING updated_at
	`
	err = r.q.QueryRow(ctx, query,
		hold.WagerID,
		hold.Amount,
		string(hold.Status),
		hold.PlatformFee,
		hold.ReleasedTo,
		payoutsJSON,
		hold.ResolvedAt,
	).Scan(&hold.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("escrow hold for wager %d not found", hold.WagerID)
	}
	if err != nil {
		return fmt.Errorf("failed to update escrow hold for wager %d: %w", hold.WagerID, err)
	}
	return nil
}

// SumOpen totals amounts of holds not yet released or refunded
func (r *EscrowRepository) SumOpen(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM escrow_holds WHERE status IN ('held', 'disputed')`
	var total int64
	if err := r.q.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum open escrow: %w", err)
	}
	return total, nil
}

func marshalPayouts(payouts map[int64]int64) ([]byte, error) {
	if payouts == nil {
		payouts = map[int64]int64{}
	}
	data, err := json.Marshal(payouts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal escrow payouts: %w", err)
	}
	return data, nil
}
