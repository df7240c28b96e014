package repository

import (
	"context"
	"fmt"
	"time"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// DisputeRepository implements dispute record data access
type DisputeRepository struct {
	q Queryable
}

// NewDisputeRepositoryScoped creates a new dispute repository bound to a transaction
func NewDisputeRepositoryScoped(tx Queryable) interfaces.DisputeRepository {
	return &DisputeRepository{q: tx}
}

const disputeColumns = `id, wager_id, reporter_id, description, status, admin_response, resolved_by, created_at, resolved_at`

// Create inserts a dispute record
func (r *DisputeRepository) Create(ctx context.Context, dispute *entities.DisputeRecord) error {
	if dispute.Status == "" {
		dispute.Status = entities.DisputeRecordOpen
	}

	query := `
		INSERT INTO disputes (wager_id, reporter_id, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		dispute.WagerID,
		dispute.ReporterID,
		dispute.Description,
		string(dispute.Status),
	).Scan(&dispute.ID, &dispute.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dispute for wager %d: %w", dispute.WagerID, err)
	}
	return nil
}

// GetByID retrieves a dispute record
func (r *DisputeRepository) GetByID(ctx context.Context, id int64) (*entities.DisputeRecord, error) {
	return r.get(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a dispute record and locks its row
func (r *DisputeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.DisputeRecord, error) {
	return r.get(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
}

func (r *DisputeRepository) get(ctx context.Context, query string, id int64) (*entities.DisputeRecord, error) {
	dispute, err := scanDispute(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispute %d: %w", id, err)
	}
	return dispute, nil
}

// ListByWager returns every dispute for a wager in creation order
func (r *DisputeRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.DisputeRecord, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE wager_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var disputes []*entities.DisputeRecord
	for rows.Next() {
		dispute, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", err)
		}
		disputes = append(disputes, dispute)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating disputes: %w", err)
	}
	return disputes, nil
}

// Update persists status and resolution fields
func (r *DisputeRepository) Update(ctx context.Context, dispute *entities.DisputeRecord) error {
	query := `
		UPDATE disputes
		SET status = $2, admin_response = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1
	`
	result, err := r.q.Exec(ctx, query,
		dispute.ID,
		string(dispute.Status),
		dispute.AdminResponse,
		dispute.ResolvedBy,
		dispute.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update dispute %d: %w", dispute.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dispute %d not found", dispute.ID)
	}
	return nil
}

// CloseOpenByWager closes every open dispute on a wager
func (r *DisputeRepository) CloseOpenByWager(ctx context.Context, wagerID int64, status entities.DisputeRecordStatus, actorID int64, response string, at time.Time) (int, error) {
	query := `
		UPDATE disputes
		SET status = $2, admin_response = $3, resolved_by = $4, resolved_at = $5
		WHERE wager_id = $1 AND status = 'open'
	`
	result, err := r.q.Exec(ctx, query, wagerID, string(status), response, actorID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to close disputes for wager %d: %w", wagerID, err)
	}
	return int(result.RowsAffected()), nil
}

func scanDispute(row pgx.Row) (*entities.DisputeRecord, error) {
	var dispute entities.DisputeRecord
	var status string
	err := row.Scan(
		&dispute.ID,
		&dispute.WagerID,
		&dispute.ReporterID,
		&dispute.Description,
		&status,
		&dispute.AdminResponse,
		&dispute.ResolvedBy,
		&dispute.CreatedAt,
		&dispute.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	dispute.Status = entities.DisputeRecordStatus(status)
	return &dispute, nil
}
