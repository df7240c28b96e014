package entities

import "time"

// DisputeRecordStatus represents the review state of a dispute record
type DisputeRecordStatus string

const (
	DisputeRecordOpen     DisputeRecordStatus = "open"
	DisputeRecordResolved DisputeRecordStatus = "resolved"
	DisputeRecordRejected DisputeRecordStatus = "rejected"
)

// DisputeRecord is raised when participants disagree or a fraud signal fires
type DisputeRecord struct {
	ID            int64               `db:"id"`
	WagerID       int64               `db:"wager_id"`
	ReporterID    int64               `db:"reporter_id"`
	Description   string              `db:"description"`
	Status        DisputeRecordStatus `db:"status"`
	AdminResponse *string             `db:"admin_response"`
	ResolvedBy    *int64              `db:"resolved_by"`
	CreatedAt     time.Time           `db:"created_at"`
	ResolvedAt    *time.Time          `db:"resolved_at"`
}

// IsOpen reports whether the dispute still awaits an admin
func (d *DisputeRecord) IsOpen() bool {
	return d.Status == DisputeRecordOpen
}

// ResultReport is one participant's claim of who won
type ResultReport struct {
	WagerID          int64     `db:"wager_id"`
	ReporterID       int64     `db:"reporter_id"`
	ReportedWinnerID int64     `db:"reported_winner_id"`
	ProofHash        *string   `db:"proof_hash"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// ReportAgreement summarizes a set of reports
type ReportAgreement struct {
	Winner      *int64 // Set only when every report names the same winner
	Conflicting bool
	Reported    int
}

// SummarizeReports checks whether all reports agree on a winner
func SummarizeReports(reports []*ResultReport) ReportAgreement {
	agreement := ReportAgreement{Reported: len(reports)}
	for _, r := range reports {
		if agreement.Winner == nil {
			winner := r.ReportedWinnerID
			agreement.Winner = &winner
			continue
		}
		if *agreement.Winner != r.ReportedWinnerID {
			agreement.Conflicting = true
			agreement.Winner = nil
			return agreement
		}
	}
	return agreement
}
