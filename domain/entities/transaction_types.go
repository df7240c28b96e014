package entities

// TransactionType represents the reason for a wallet balance change
type TransactionType string

const (
	// Funding source transactions
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"

	// Wager stake movements
	TransactionTypeWagerJoin        TransactionType = "wager_join"
	TransactionTypeWagerLeaveRefund TransactionType = "wager_leave_refund"
	TransactionTypeWagerRefund      TransactionType = "wager_refund"

	// Settlement
	TransactionTypeWagerPayout TransactionType = "wager_payout"
	TransactionTypeWagerSplit  TransactionType = "wager_split"
	TransactionTypePlatformFee TransactionType = "platform_fee"
)

// IsExternal returns true for deposits and withdrawals, which change the
// total amount of money inside the system
func (tt TransactionType) IsExternal() bool {
	return tt == TransactionTypeDeposit || tt == TransactionTypeWithdrawal
}

// IsDebit returns true if the transaction type removes funds from an account
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeWithdrawal || tt == TransactionTypeWagerJoin
}

// IsSettlement returns true for transactions written when a wager is settled
func (tt TransactionType) IsSettlement() bool {
	return tt == TransactionTypeWagerPayout ||
		tt == TransactionTypeWagerSplit ||
		tt == TransactionTypePlatformFee
}

// IsValid reports whether tt is a known transaction type
func (tt TransactionType) IsValid() bool {
	switch tt {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeWagerJoin, TransactionTypeWagerLeaveRefund, TransactionTypeWagerRefund,
		TransactionTypeWagerPayout, TransactionTypeWagerSplit, TransactionTypePlatformFee:
		return true
	}
	return false
}
