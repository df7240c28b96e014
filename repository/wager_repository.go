package repository

import (
	"context"
	"fmt"
	"time"

	"wagerengine/database"
	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// WagerRepository implements wager data access
type WagerRepository struct {
	q Queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// NewWagerRepositoryScoped creates a new wager repository bound to a transaction
func NewWagerRepositoryScoped(tx Queryable) interfaces.WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `
	id, creator_id, game, platform, stake_amount, max_participants, status,
	dispute_status, total_pot, winner_id, settlement_attempts, settled_at,
	admin_override, override_reason, admin_actioned_by, last_admin_action_at,
	allowed_tiers, tournament_id, tournament_round, expires_at, created_at,
	started_at, completed_at, cancelled_at, updated_at`

// Create inserts a new wager
func (r *WagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	if wager.Status == "" {
		wager.Status = entities.WagerStatusOpen
	}
	if wager.DisputeStatus == "" {
		wager.DisputeStatus = entities.DisputeStatusNone
	}

	query := `
		INSERT INTO wagers (
			creator_id, game, platform, stake_amount, max_participants, status,
			dispute_status, total_pot, allowed_tiers, tournament_id, tournament_round, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		wager.CreatorID,
		wager.Game,
		wager.Platform,
		wager.StakeAmount,
		wager.MaxParticipants,
		string(wager.Status),
		string(wager.DisputeStatus),
		wager.TotalPot,
		tiersToStrings(wager.AllowedTiers),
		wager.TournamentID,
		wager.TournamentRound,
		wager.ExpiresAt,
	).Scan(&wager.ID, &wager.CreatedAt, &wager.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}
	return nil
}

// GetByID retrieves a wager without locking it
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByIDForUpdate retrieves a wager and locks its row
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *WagerRepository) get(ctx context.Context, query string, id int64) (*entities.Wager, error) {
	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return wager, nil
}

// Update persists every mutable field of the wager
func (r *WagerRepository) Update(ctx context.Context, wager *entities.Wager) error {
	query := `
		UPDATE wagers SET
			status = $2,
			dispute_status = $3,
			total_pot = $4,
			winner_id = $5,
			settled_at = $6,
			admin_override = $7,
			override_reason = $8,
			admin_actioned_by = $9,
			last_admin_action_at = $10,
			started_at = $11,
			completed_at = $12,
			cancelled_at = $13,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		wager.ID,
		string(wager.Status),
		string(wager.DisputeStatus),
		wager.TotalPot,
		wager.WinnerID,
		wager.SettledAt,
		wager.AdminOverride,
		wager.OverrideReason,
		wager.AdminActionedBy,
		wager.LastAdminActionAt,
		wager.StartedAt,
		wager.CompletedAt,
		wager.CancelledAt,
	).Scan(&wager.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("wager %d not found", wager.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update wager %d: %w", wager.ID, err)
	}
	return nil
}

// IncrementSettlementAttempts bumps the counter, returning 0 when the wager does not exist
func (r *WagerRepository) IncrementSettlementAttempts(ctx context.Context, id int64) (int, error) {
	query := `
		UPDATE wagers
		SET settlement_attempts = settlement_attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING settlement_attempts
	`
	var attempts int
	err := r.q.QueryRow(ctx, query, id).Scan(&attempts)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment settlement attempts for wager %d: %w", id, err)
	}
	return attempts, nil
}

// ListByStatus returns the newest wagers in a status
func (r *WagerRepository) ListByStatus(ctx context.Context, status entities.WagerStatus, limit int) ([]*entities.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s wagers: %w", status, err)
	}
	defer rows.Close()

	var wagers []*entities.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}

// ListExpiredOpen returns ids of open wagers past their expiry, oldest first
func (r *WagerRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id FROM wagers
		WHERE status = 'open' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	return r.listIDs(ctx, query, now, limit)
}

// ListPendingSettlement returns in-progress wagers with an agreed winner that were never paid
func (r *WagerRepository) ListPendingSettlement(ctx context.Context, limit int) ([]int64, error) {
	query := `
		SELECT id FROM wagers
		WHERE status = 'in_progress'
		  AND winner_id IS NOT NULL
		  AND settled_at IS NULL
		  AND dispute_status NOT IN ('open', 'manual')
		ORDER BY id ASC
		LIMIT $1
	`
	return r.listIDs(ctx, query, limit)
}

func (r *WagerRepository) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wager ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan wager id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListRecentResults returns, newest first, whether the user won each settled wager they played
func (r *WagerRepository) ListRecentResults(ctx context.Context, userID int64, limit int) ([]bool, error) {
	query := `
		SELECT COALESCE(w.winner_id = $1, FALSE)
		FROM wagers w
		JOIN wager_participants p ON p.wager_id = w.id AND p.user_id = $1 AND p.status = 'active'
		WHERE w.status = 'completed' AND w.settled_at IS NOT NULL
		ORDER BY w.settled_at DESC, w.id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent results for user %d: %w", userID, err)
	}
	defer rows.Close()

	var results []bool
	for rows.Next() {
		var won bool
		if err := rows.Scan(&won); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, won)
	}
	return results, rows.Err()
}

// CountSettledTogether counts settled wagers both users played since the given time
func (r *WagerRepository) CountSettledTogether(ctx context.Context, userA, userB int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM wagers w
		JOIN wager_participants a ON a.wager_id = w.id AND a.user_id = $1 AND a.status = 'active'
		JOIN wager_participants b ON b.wager_id = w.id AND b.user_id = $2 AND b.status = 'active'
		WHERE w.status = 'completed' AND w.settled_at >= $3
	`
	var count int
	if err := r.q.QueryRow(ctx, query, userA, userB, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count wagers settled between %d and %d: %w", userA, userB, err)
	}
	return count, nil
}

func scanWager(row pgx.Row) (*entities.Wager, error) {
	var wager entities.Wager
	var status, disputeStatus string
	var tiers []string

	err := row.Scan(
		&wager.ID,
		&wager.CreatorID,
		&wager.Game,
		&wager.Platform,
		&wager.StakeAmount,
		&wager.MaxParticipants,
		&status,
		&disputeStatus,
		&wager.TotalPot,
		&wager.WinnerID,
		&wager.SettlementAttempts,
		&wager.SettledAt,
		&wager.AdminOverride,
		&wager.OverrideReason,
		&wager.AdminActionedBy,
		&wager.LastAdminActionAt,
		&tiers,
		&wager.TournamentID,
		&wager.TournamentRound,
		&wager.ExpiresAt,
		&wager.CreatedAt,
		&wager.StartedAt,
		&wager.CompletedAt,
		&wager.CancelledAt,
		&wager.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	wager.Status = entities.WagerStatus(status)
	wager.DisputeStatus = entities.DisputeStatus(disputeStatus)
	for _, t := range tiers {
		wager.AllowedTiers = append(wager.AllowedTiers, entities.SkillTier(t))
	}
	return &wager, nil
}

func tiersToStrings(tiers []entities.SkillTier) []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, string(t))
	}
	return out
}
