package entities

import "time"

// TransitionType is the machine-readable kind of a committed wager change
type TransitionType string

const (
	TransitionCreated         TransitionType = "created"
	TransitionParticipantJoin TransitionType = "participant_joined"
	TransitionParticipantLeft TransitionType = "participant_left"
	TransitionStarted         TransitionType = "started"
	TransitionReportSubmitted TransitionType = "report_submitted"
	TransitionDisputeOpened   TransitionType = "dispute_opened"
	TransitionDisputeManual   TransitionType = "dispute_manual"
	TransitionDisputeResolved TransitionType = "dispute_resolved"
	TransitionCompleted       TransitionType = "completed"
	TransitionCancelled       TransitionType = "cancelled"
)

// WagerTransition is one entry in the durable change feed
type WagerTransition struct {
	ID             int64          `db:"id"`
	WagerID        int64          `db:"wager_id"`
	TransitionType TransitionType `db:"transition_type"`
	FromStatus     WagerStatus    `db:"from_status"`
	ToStatus       WagerStatus    `db:"to_status"`
	DisputeStatus  DisputeStatus  `db:"dispute_status"`
	Terminal       bool           `db:"terminal"`
	ActorID        *int64         `db:"actor_id"`
	CreatedAt      time.Time      `db:"created_at"`
}
