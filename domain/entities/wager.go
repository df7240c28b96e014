package entities

import (
	"fmt"
	"time"
)

// WagerStatus represents the lifecycle status of a wager
type WagerStatus string

const (
	WagerStatusOpen       WagerStatus = "open"
	WagerStatusInProgress WagerStatus = "in_progress"
	WagerStatusCompleted  WagerStatus = "completed"
	WagerStatusCancelled  WagerStatus = "cancelled"
)

// DisputeStatus is orthogonal to WagerStatus
type DisputeStatus string

const (
	DisputeStatusNone     DisputeStatus = "none"
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusManual   DisputeStatus = "manual"
	DisputeStatusResolved DisputeStatus = "resolved"
)

const (
	MinParticipants = 2
	MaxParticipants = 64
)

var wagerTransitions = map[WagerStatus][]WagerStatus{
	WagerStatusOpen:       {WagerStatusInProgress, WagerStatusCancelled},
	WagerStatusInProgress: {WagerStatusCompleted, WagerStatusCancelled},
}

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusNone:   {DisputeStatusOpen, DisputeStatusManual},
	DisputeStatusOpen:   {DisputeStatusManual, DisputeStatusResolved},
	DisputeStatusManual: {DisputeStatusResolved},
	// A resolved dispute can be reopened by a new signal on a completed wager
	DisputeStatusResolved: {DisputeStatusOpen, DisputeStatusManual},
}

// Wager is a staked match between two or more participants
type Wager struct {
	ID                 int64         `db:"id"`
	CreatorID          int64         `db:"creator_id"`
	Game               string        `db:"game"`
	Platform           string        `db:"platform"`
	StakeAmount        int64         `db:"stake_amount"`
	MaxParticipants    int           `db:"max_participants"`
	Status             WagerStatus   `db:"status"`
	DisputeStatus      DisputeStatus `db:"dispute_status"`
	TotalPot           int64         `db:"total_pot"`
	WinnerID           *int64        `db:"winner_id"`
	SettlementAttempts int           `db:"settlement_attempts"`
	SettledAt          *time.Time    `db:"settled_at"`
	AdminOverride      bool          `db:"admin_override"`
	OverrideReason     *string       `db:"override_reason"`
	AdminActionedBy    *int64        `db:"admin_actioned_by"`
	LastAdminActionAt  *time.Time    `db:"last_admin_action_at"`
	AllowedTiers       []SkillTier   `db:"allowed_tiers"`
	TournamentID       *int64        `db:"tournament_id"`
	TournamentRound    *int          `db:"tournament_round"`
	ExpiresAt          *time.Time    `db:"expires_at"`
	CreatedAt          time.Time     `db:"created_at"`
	StartedAt          *time.Time    `db:"started_at"`
	CompletedAt        *time.Time    `db:"completed_at"`
	CancelledAt        *time.Time    `db:"cancelled_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// WagerDetail combines a wager with its participants and escrow
type WagerDetail struct {
	Wager        *Wager
	Participants []*Participant
	Escrow       *EscrowHold
}

// IsTerminal reports whether no further status transition is allowed
func (w *Wager) IsTerminal() bool {
	return w.Status == WagerStatusCompleted || w.Status == WagerStatusCancelled
}

// IsSettled reports whether a payout has been recorded
func (w *Wager) IsSettled() bool {
	return w.SettledAt != nil
}

// HasActiveDispute reports whether a payout must wait for an admin
func (w *Wager) HasActiveDispute() bool {
	return w.DisputeStatus == DisputeStatusOpen || w.DisputeStatus == DisputeStatusManual
}

// CanTransitionTo checks the status transition table
func (w *Wager) CanTransitionTo(next WagerStatus) bool {
	for _, allowed := range wagerTransitions[w.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransitionDisputeTo checks the dispute transition table
func (w *Wager) CanTransitionDisputeTo(next DisputeStatus) bool {
	if w.Status == WagerStatusOpen || w.Status == WagerStatusCancelled {
		return false
	}
	for _, allowed := range disputeTransitions[w.DisputeStatus] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the wager to next, stamping the matching timestamp
func (w *Wager) TransitionTo(next WagerStatus, at time.Time) error {
	if !w.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, w.Status, next)
	}
	w.Status = next
	switch next {
	case WagerStatusInProgress:
		w.StartedAt = &at
	case WagerStatusCompleted:
		w.CompletedAt = &at
	case WagerStatusCancelled:
		w.CancelledAt = &at
	}
	return nil
}

// TransitionDisputeTo moves the dispute status to next
func (w *Wager) TransitionDisputeTo(next DisputeStatus) error {
	if !w.CanTransitionDisputeTo(next) {
		return fmt.Errorf("%w: dispute %s -> %s", ErrInvalidStateTransition, w.DisputeStatus, next)
	}
	w.DisputeStatus = next
	return nil
}

// CanJoin checks status and capacity for one more participant
func (w *Wager) CanJoin(activeCount int) error {
	if w.Status != WagerStatusOpen {
		return fmt.Errorf("%w: cannot join a %s wager", ErrInvalidStateTransition, w.Status)
	}
	if activeCount >= w.MaxParticipants {
		return ErrWagerFull
	}
	return nil
}

// CanLeave checks that participants may still withdraw
func (w *Wager) CanLeave() error {
	switch w.Status {
	case WagerStatusOpen:
		return nil
	case WagerStatusInProgress:
		return ErrCannotLeaveActiveMatch
	default:
		return fmt.Errorf("%w: cannot leave a %s wager", ErrInvalidStateTransition, w.Status)
	}
}

// IsFull reports whether every slot is taken
func (w *Wager) IsFull(activeCount int) bool {
	return activeCount >= w.MaxParticipants
}

// IsExpired reports whether an open wager has passed its expiry
func (w *Wager) IsExpired(now time.Time) bool {
	return w.Status == WagerStatusOpen && w.ExpiresAt != nil && now.After(*w.ExpiresAt)
}

// IsTierAllowed reports whether tier may join; an empty set means unrestricted
func (w *Wager) IsTierAllowed(tier SkillTier) bool {
	if len(w.AllowedTiers) == 0 {
		return true
	}
	for _, allowed := range w.AllowedTiers {
		if allowed == tier {
			return true
		}
	}
	return false
}

// RecordAdminAction stamps the override audit fields
func (w *Wager) RecordAdminAction(actorID int64, reason string, at time.Time) {
	w.AdminOverride = true
	w.OverrideReason = &reason
	w.AdminActionedBy = &actorID
	w.LastAdminActionAt = &at
}

// CheckPotInvariant verifies total_pot == stake × participants while open
func (w *Wager) CheckPotInvariant(activeCount int) error {
	if w.Status != WagerStatusOpen {
		return nil
	}
	if expected := w.StakeAmount * int64(activeCount); w.TotalPot != expected {
		return fmt.Errorf("%w: wager %d pot %d, expected %d", ErrLedgerInconsistency, w.ID, w.TotalPot, expected)
	}
	return nil
}
