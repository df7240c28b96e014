package entities

import "time"

// ParticipantStatus represents a participant's standing in a wager
type ParticipantStatus string

const (
	ParticipantStatusActive   ParticipantStatus = "active"
	ParticipantStatusLeft     ParticipantStatus = "left"
	ParticipantStatusRefunded ParticipantStatus = "refunded"
)

// Participant is a user's stake in a single wager
type Participant struct {
	WagerID   int64             `db:"wager_id"`
	UserID    int64             `db:"user_id"`
	StakePaid int64             `db:"stake_paid"`
	Status    ParticipantStatus `db:"status"`
	JoinedAt  time.Time         `db:"joined_at"`
	LeftAt    *time.Time        `db:"left_at"`
}

// IsActive reports whether the participant still holds a stake
func (p *Participant) IsActive() bool {
	return p.Status == ParticipantStatusActive
}

// ActiveParticipants filters to participants holding a stake
func ActiveParticipants(participants []*Participant) []*Participant {
	active := make([]*Participant, 0, len(participants))
	for _, p := range participants {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

// FindParticipant returns the participant row for userID, or nil
func FindParticipant(participants []*Participant, userID int64) *Participant {
	for _, p := range participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// SumStakes totals stake_paid across participants
func SumStakes(participants []*Participant) int64 {
	var total int64
	for _, p := range participants {
		total += p.StakePaid
	}
	return total
}
