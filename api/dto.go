package api

import (
	"time"

	"wagerengine/domain/entities"
)

// APIResponse is the envelope for every JSON response
type APIResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// CreateWagerBody is the body of POST /wagers
type CreateWagerBody struct {
	Game            string   `json:"game"`
	Platform        string   `json:"platform"`
	StakeAmount     int64    `json:"stake_amount"`
	MaxParticipants int      `json:"max_participants"`
	AllowedTiers    []string `json:"allowed_tiers,omitempty"`
	TournamentID    *int64   `json:"tournament_id,omitempty"`
	TournamentRound *int     `json:"tournament_round,omitempty"`
	CreatorStakes   bool     `json:"creator_stakes"`
}

type JoinBody struct {
	StakeAmount int64 `json:"stake_amount"`
}

type ReasonBody struct {
	Reason string `json:"reason"`
}

type ReportBody struct {
	WinnerID  int64   `json:"winner_id"`
	ProofHash *string `json:"proof_hash,omitempty"`
}

type DisputeBody struct {
	Description string `json:"description"`
}

type ForceSettleBody struct {
	WinnerID int64  `json:"winner_id"`
	Reason   string `json:"reason"`
}

type ForceSplitBody struct {
	Shares map[int64]int64 `json:"shares"`
	Reason string          `json:"reason"`
}

type ResolveDisputeBody struct {
	Response string `json:"response"`
	Reject   bool   `json:"reject"`
}

// FundingBody is the body of the deposit and withdraw routes
type FundingBody struct {
	Amount        int64  `json:"amount"`
	ExternalRef   string `json:"external_ref"`
	FundingSource string `json:"funding_source,omitempty"`
}

type WagerResponse struct {
	ID                 int64      `json:"id"`
	CreatorID          int64      `json:"creator_id"`
	Game               string     `json:"game"`
	Platform           string     `json:"platform,omitempty"`
	StakeAmount        int64      `json:"stake_amount"`
	MaxParticipants    int        `json:"max_participants"`
	Status             string     `json:"status"`
	DisputeStatus      string     `json:"dispute_status"`
	TotalPot           int64      `json:"total_pot"`
	WinnerID           *int64     `json:"winner_id,omitempty"`
	SettlementAttempts int        `json:"settlement_attempts"`
	AdminOverride      bool       `json:"admin_override"`
	OverrideReason     *string    `json:"override_reason,omitempty"`
	AllowedTiers       []string   `json:"allowed_tiers,omitempty"`
	TournamentID       *int64     `json:"tournament_id,omitempty"`
	TournamentRound    *int       `json:"tournament_round,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

type ParticipantResponse struct {
	UserID    int64      `json:"user_id"`
	StakePaid int64      `json:"stake_paid"`
	Status    string     `json:"status"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}

type EscrowResponse struct {
	Amount      int64           `json:"amount"`
	Status      string          `json:"status"`
	PlatformFee int64           `json:"platform_fee"`
	ReleasedTo  *int64          `json:"released_to,omitempty"`
	Payouts     map[int64]int64 `json:"payouts,omitempty"`
}

// WagerDetailResponse is a wager summary with its participants and escrow
type WagerDetailResponse struct {
	Wager        WagerResponse         `json:"wager"`
	Participants []ParticipantResponse `json:"participants"`
	Escrow       *EscrowResponse       `json:"escrow,omitempty"`
}

type EscrowOutcomeResponse struct {
	WagerID         int64           `json:"wager_id"`
	Status          string          `json:"status"`
	ReleasedTo      *int64          `json:"released_to,omitempty"`
	PlatformFee     int64           `json:"platform_fee"`
	Payouts         map[int64]int64 `json:"payouts"`
	AlreadyResolved bool            `json:"already_resolved"`
}

type RatingChangeResponse struct {
	UserID    int64 `json:"user_id"`
	OldRating int   `json:"old_rating"`
	NewRating int   `json:"new_rating"`
	Won       bool  `json:"won"`
}

type SettlementResponse struct {
	Wager          WagerResponse          `json:"wager"`
	Escrow         *EscrowOutcomeResponse `json:"escrow,omitempty"`
	Pot            int64                  `json:"pot"`
	PlatformFee    int64                  `json:"platform_fee"`
	PrizePool      int64                  `json:"prize_pool"`
	RatingChanges  []RatingChangeResponse `json:"rating_changes,omitempty"`
	AlreadySettled bool                   `json:"already_settled"`
}

type ReportResponse struct {
	Wager         WagerResponse       `json:"wager"`
	ReadyToSettle bool                `json:"ready_to_settle"`
	Dispute       *DisputeResponse    `json:"dispute,omitempty"`
	Settlement    *SettlementResponse `json:"settlement,omitempty"`
}

type DisputeResponse struct {
	ID            int64      `json:"id"`
	WagerID       int64      `json:"wager_id"`
	ReporterID    int64      `json:"reporter_id"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	AdminResponse *string    `json:"admin_response,omitempty"`
	ResolvedBy    *int64     `json:"resolved_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

type WalletResponse struct {
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionResponse struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"user_id"`
	Amount          int64          `json:"amount"`
	BalanceBefore   int64          `json:"balance_before"`
	BalanceAfter    int64          `json:"balance_after"`
	TransactionType string         `json:"transaction_type"`
	RelatedID       *int64         `json:"related_id,omitempty"`
	RelatedType     *string        `json:"related_type,omitempty"`
	ExternalRef     *string        `json:"external_ref,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type TransitionResponse struct {
	ID             int64     `json:"id"`
	WagerID        int64     `json:"wager_id"`
	TransitionType string    `json:"transition_type"`
	FromStatus     string    `json:"from_status"`
	ToStatus       string    `json:"to_status"`
	DisputeStatus  string    `json:"dispute_status"`
	Terminal       bool      `json:"terminal"`
	ActorID        *int64    `json:"actor_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FeedResponse carries one page of the change feed and the cursor for the next
type FeedResponse struct {
	Transitions []TransitionResponse `json:"transitions"`
	NextAfter   int64                `json:"next_after"`
}

func toWagerResponse(w *entities.Wager) WagerResponse {
	tiers := make([]string, 0, len(w.AllowedTiers))
	for _, t := range w.AllowedTiers {
		tiers = append(tiers, string(t))
	}
	return WagerResponse{
		ID:                 w.ID,
		CreatorID:          w.CreatorID,
		Game:               w.Game,
		Platform:           w.Platform,
		StakeAmount:        w.StakeAmount,
		MaxParticipants:    w.MaxParticipants,
		Status:             string(w.Status),
		DisputeStatus:      string(w.DisputeStatus),
		TotalPot:           w.TotalPot,
		WinnerID:           w.WinnerID,
		SettlementAttempts: w.SettlementAttempts,
		AdminOverride:      w.AdminOverride,
		OverrideReason:     w.OverrideReason,
		AllowedTiers:       tiers,
		TournamentID:       w.TournamentID,
		TournamentRound:    w.TournamentRound,
		ExpiresAt:          w.ExpiresAt,
		CreatedAt:          w.CreatedAt,
		StartedAt:          w.StartedAt,
		SettledAt:          w.SettledAt,
		CancelledAt:        w.CancelledAt,
	}
}

func toWagerDetailResponse(d *entities.WagerDetail) WagerDetailResponse {
	resp := WagerDetailResponse{
		Wager:        toWagerResponse(d.Wager),
		Participants: make([]ParticipantResponse, 0, len(d.Participants)),
	}
	for _, p := range d.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			UserID:    p.UserID,
			StakePaid: p.StakePaid,
			Status:    string(p.Status),
			JoinedAt:  p.JoinedAt,
			LeftAt:    p.LeftAt,
		})
	}
	if d.Escrow != nil {
		resp.Escrow = &EscrowResponse{
			Amount:      d.Escrow.Amount,
			Status:      string(d.Escrow.Status),
			PlatformFee: d.Escrow.PlatformFee,
			ReleasedTo:  d.Escrow.ReleasedTo,
			Payouts:     d.Escrow.Payouts,
		}
	}
	return resp
}

func toEscrowOutcomeResponse(o *entities.EscrowOutcome) *EscrowOutcomeResponse {
	if o == nil {
		return nil
	}
	return &EscrowOutcomeResponse{
		WagerID:         o.WagerID,
		Status:          string(o.Status),
		ReleasedTo:      o.ReleasedTo,
		PlatformFee:     o.PlatformFee,
		Payouts:         o.Payouts,
		AlreadyResolved: o.AlreadyResolved,
	}
}

func toSettlementResponse(r *entities.SettlementResult) *SettlementResponse {
	if r == nil {
		return nil
	}
	resp := &SettlementResponse{
		Wager:          toWagerResponse(r.Wager),
		Escrow:         toEscrowOutcomeResponse(r.Escrow),
		Pot:            r.Fee.Pot,
		PlatformFee:    r.Fee.PlatformFee,
		PrizePool:      r.Fee.PrizePool,
		AlreadySettled: r.AlreadySettled,
	}
	for _, c := range r.RatingChanges {
		resp.RatingChanges = append(resp.RatingChanges, RatingChangeResponse{
			UserID:    c.UserID,
			OldRating: c.OldRating,
			NewRating: c.NewRating,
			Won:       c.Won,
		})
	}
	return resp
}

func toDisputeResponse(d *entities.DisputeRecord) *DisputeResponse {
	if d == nil {
		return nil
	}
	return &DisputeResponse{
		ID:            d.ID,
		WagerID:       d.WagerID,
		ReporterID:    d.ReporterID,
		Description:   d.Description,
		Status:        string(d.Status),
		AdminResponse: d.AdminResponse,
		ResolvedBy:    d.ResolvedBy,
		CreatedAt:     d.CreatedAt,
		ResolvedAt:    d.ResolvedAt,
	}
}

func toTransactionResponse(tx *entities.WalletTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              tx.ID,
		UserID:          tx.UserID,
		Amount:          tx.Amount,
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		TransactionType: string(tx.TransactionType),
		RelatedID:       tx.RelatedID,
		ExternalRef:     tx.ExternalRef,
		Metadata:        tx.TransactionMetadata,
		CreatedAt:       tx.CreatedAt,
	}
	if tx.RelatedType != nil {
		related := string(*tx.RelatedType)
		resp.RelatedType = &related
	}
	return resp
}

func toTransitionResponse(t *entities.WagerTransition) TransitionResponse {
	return TransitionResponse{
		ID:             t.ID,
		WagerID:        t.WagerID,
		TransitionType: string(t.TransitionType),
		FromStatus:     string(t.FromStatus),
		ToStatus:       string(t.ToStatus),
		DisputeStatus:  string(t.DisputeStatus),
		Terminal:       t.Terminal,
		ActorID:        t.ActorID,
		CreatedAt:      t.CreatedAt,
	}
}
