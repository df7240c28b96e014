package repository

import (
	"context"
	"fmt"

	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"
)

// ResultReportRepository implements result report data access
type ResultReportRepository struct {
	q Queryable
}

// NewResultReportRepositoryScoped creates a new result report repository bound to a transaction
func NewResultReportRepositoryScoped(tx Queryable) interfaces.ResultReportRepository {
	return &ResultReportRepository{q: tx}
}

// Upsert records a reporter's claim, replacing any earlier claim from the same reporter
func (r *ResultReportRepository) Upsert(ctx context.Context, report *entities.ResultReport) error {
	query := `
		INSERT INTO result_reports (wager_id, reporter_id, reported_winner_id, proof_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wager_id, reporter_id) DO UPDATE SET
			reported_winner_id = EXCLUDED.reported_winner_id,
			proof_hash = EXCLUDED.proof_hash,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		report.WagerID,
		report.ReporterID,
		report.ReportedWinnerID,
		report.ProofHash,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report from %d on wager %d: %w", report.ReporterID, report.WagerID, err)
	}
	return nil
}

// ListByWager returns every report for a wager ordered by reporter
func (r *ResultReportRepository) ListByWager(ctx context.Context, wagerID int64) ([]*entities.ResultReport, error) {
	query := `
		SELECT wager_id, reporter_id, reported_winner_id, proof_hash, created_at, updated_at
		FROM result_reports
		WHERE wager_id = $1
		ORDER BY reporter_id ASC
	`
	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var reports []*entities.ResultReport
	for rows.Next() {
		var report entities.ResultReport
		if err := rows.Scan(
			&report.WagerID,
			&report.ReporterID,
			&report.ReportedWinnerID,
			&report.ProofHash,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// FindProofReuse maps each proof hash on the wager to the other wagers that used it
func (r *ResultReportRepository) FindProofReuse(ctx context.Context, wagerID int64) (map[string][]int64, error) {
	query := `
		SELECT DISTINCT mine.proof_hash, other.wager_id
		FROM result_reports mine
		JOIN result_reports other
		  ON other.proof_hash = mine.proof_hash AND other.wager_id <> mine.wager_id
		WHERE mine.wager_id = $1 AND mine.proof_hash IS NOT NULL
		ORDER BY mine.proof_hash, other.wager_id
	`
	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find proof reuse for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	reused := make(map[string][]int64)
	for rows.Next() {
		var hash string
		var otherWagerID int64
		if err := rows.Scan(&hash, &otherWagerID); err != nil {
			return nil, fmt.Errorf("failed to scan proof reuse: %w", err)
		}
		reused[hash] = append(reused[hash], otherWagerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proof reuse: %w", err)
	}
	return reused, nil
}
