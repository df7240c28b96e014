package entities

import "time"

// FraudSignal names an anti-abuse check
type FraudSignal string

const (
	FraudSignalWinStreak    FraudSignal = "win_streak"
	FraudSignalRapidRematch FraudSignal = "rapid_rematch"
	FraudSignalReusedProof  FraudSignal = "reused_proof"
	FraudSignalMultiAccount FraudSignal = "multi_account"
)

// FraudSeverity decides whether a flag escalates the wager to manual review
type FraudSeverity string

const (
	FraudSeverityLow  FraudSeverity = "low"
	FraudSeverityHigh FraudSeverity = "high"
)

// FraudFlag records a fired anti-abuse signal
type FraudFlag struct {
	ID        int64          `db:"id"`
	WagerID   int64          `db:"wager_id"`
	UserID    *int64         `db:"user_id"`
	Signal    FraudSignal    `db:"signal"`
	Severity  FraudSeverity  `db:"severity"`
	Details   map[string]any `db:"details"`
	CreatedAt time.Time      `db:"created_at"`
}

// RequiresManualReview reports whether the flag forces dispute_status=manual
func (f *FraudFlag) RequiresManualReview() bool {
	return f.Severity == FraudSeverityHigh
}
