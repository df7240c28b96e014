package entities

import (
	"fmt"
	"time"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeWager   RelatedType = "wager"
	RelatedTypeFunding RelatedType = "funding"
)

// WalletAccount holds the cached balance for a user. The transaction log is
// the source of truth.
type WalletAccount struct {
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// WalletTransaction is an immutable ledger entry
type WalletTransaction struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	Amount              int64           `db:"amount"` // Signed
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	ExternalRef         *string         `db:"external_ref"`
	CreatedAt           time.Time       `db:"created_at"`
}

// LedgerRef ties a ledger entry to the entity that caused it
type LedgerRef struct {
	RelatedID   *int64
	RelatedType *RelatedType
	ExternalRef *string
	Metadata    map[string]any
}

// WagerRef builds a LedgerRef pointing at a wager
func WagerRef(wagerID int64) LedgerRef {
	relatedType := RelatedTypeWager
	return LedgerRef{RelatedID: &wagerID, RelatedType: &relatedType}
}

// FundingRef builds a LedgerRef for an external funding event
func FundingRef(externalRef string) LedgerRef {
	relatedType := RelatedTypeFunding
	return LedgerRef{RelatedType: &relatedType, ExternalRef: &externalRef}
}

// ValidateTransaction checks that balance_after follows from balance_before
func (t *WalletTransaction) ValidateTransaction() error {
	if t.Amount == 0 {
		return fmt.Errorf("%w: transaction amount cannot be zero", ErrValidation)
	}
	if t.BalanceAfter != t.BalanceBefore+t.Amount {
		return fmt.Errorf("%w: balance_after %d != balance_before %d + amount %d",
			ErrLedgerInconsistency, t.BalanceAfter, t.BalanceBefore, t.Amount)
	}
	if t.BalanceAfter < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// LedgerDrift reports a cached balance that disagrees with its transaction log
type LedgerDrift struct {
	UserID          int64
	CachedBalance   int64
	ReplayedBalance int64
	TransactionID   int64 // First transaction whose balance_before broke the chain, 0 if none
}

func (d LedgerDrift) Error() string {
	return fmt.Sprintf("account %d: cached balance %d, replayed balance %d (first broken transaction %d)",
		d.UserID, d.CachedBalance, d.ReplayedBalance, d.TransactionID)
}

// ReplayLedger replays transactions in creation order and returns the final
// balance, or a LedgerDrift when the chain is broken
func ReplayLedger(userID int64, cached int64, transactions []*WalletTransaction) (int64, *LedgerDrift) {
	var balance int64
	var broken int64
	for _, tx := range transactions {
		if tx.BalanceBefore != balance && broken == 0 {
			broken = tx.ID
		}
		balance += tx.Amount
	}
	if balance != cached || broken != 0 {
		return balance, &LedgerDrift{
			UserID:          userID,
			CachedBalance:   cached,
			ReplayedBalance: balance,
			TransactionID:   broken,
		}
	}
	return balance, nil
}
