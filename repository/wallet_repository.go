package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"wagerengine/database"
	"wagerengine/domain/entities"
	"wagerengine/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q Queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// NewWalletRepositoryScoped creates a new wallet repository bound to a transaction
func NewWalletRepositoryScoped(tx Queryable) interfaces.WalletRepository {
	return &WalletRepository{q: tx}
}

const walletAccountColumns = `user_id, balance, created_at, updated_at`

const walletTransactionColumns = `
	id, user_id, amount, balance_before, balance_after, transaction_type,
	transaction_metadata, related_id, related_type, external_ref, created_at`

// GetAccount retrieves an account without locking it
func (r *WalletRepository) GetAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	query := `SELECT ` + walletAccountColumns + ` FROM wallet_accounts WHERE user_id = $1`
	return r.getAccount(ctx, query, userID)
}

// GetAccountForUpdate retrieves an account and locks its row
func (r *WalletRepository) GetAccountForUpdate(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	query := `SELECT ` + walletAccountColumns + ` FROM wallet_accounts WHERE user_id = $1 FOR UPDATE`
	return r.getAccount(ctx, query, userID)
}

func (r *WalletRepository) getAccount(ctx context.Context, query string, userID int64) (*entities.WalletAccount, error) {
	var account entities.WalletAccount
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet account %d: %w", userID, err)
	}
	return &account, nil
}

// EnsureAccount creates a zero-balance account when the user has none
func (r *WalletRepository) EnsureAccount(ctx context.Context, userID int64) (*entities.WalletAccount, error) {
	query := `
		INSERT INTO wallet_accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet account %d: %w", userID, err)
	}
	return r.GetAccount(ctx, userID)
}

// UpdateBalance writes the cached balance
func (r *WalletRepository) UpdateBalance(ctx context.Context, userID int64, newBalance int64) error {
	query := `
		UPDATE wallet_accounts
		SET balance = $1, updated_at = NOW()
		WHERE user_id = $2
	`
	result, err := r.q.Exec(ctx, query, newBalance, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet account %d not found", userID)
	}
	return nil
}

// RecordTransaction appends a ledger entry
func (r *WalletRepository) RecordTransaction(ctx context.Context, tx *entities.WalletTransaction) error {
	metadataJSON, err := json.Marshal(tx.TransactionMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	var relatedType *string
	if tx.RelatedType != nil {
		rt := string(*tx.RelatedType)
		relatedType = &rt
	}

	query := `
		INSERT INTO wallet_transactions
		(user_id, amount, balance_before, balance_after, transaction_type,
		 transaction_metadata, related_id, related_type, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err = r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		string(tx.TransactionType),
		metadataJSON,
		tx.RelatedID,
		relatedType,
		tx.ExternalRef,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wallet transaction for user %d: %w", tx.UserID, err)
	}
	return nil
}

// GetTransactionByExternalRef retrieves the entry recorded for a funding reference
func (r *WalletRepository) GetTransactionByExternalRef(ctx context.Context, externalRef string) (*entities.WalletTransaction, error) {
	query := `SELECT ` + walletTransactionColumns + ` FROM wallet_transactions WHERE external_ref = $1`

	tx, err := scanWalletTransaction(r.q.QueryRow(ctx, query, externalRef))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by external ref %q: %w", externalRef, err)
	}
	return tx, nil
}

// ListTransactions returns the newest entries for a user first
func (r *WalletRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]*entities.WalletTransaction, error) {
	query := `
		SELECT ` + walletTransactionColumns + `
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	return r.listTransactions(ctx, query, userID, limit)
}

// ListTransactionsForReplay returns every entry for a user in creation order
func (r *WalletRepository) ListTransactionsForReplay(ctx context.Context, userID int64) ([]*entities.WalletTransaction, error) {
	query := `
		SELECT ` + walletTransactionColumns + `
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY id ASC
	`
	return r.listTransactions(ctx, query, userID)
}

func (r *WalletRepository) listTransactions(ctx context.Context, query string, args ...any) ([]*entities.WalletTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entities.WalletTransaction
	for rows.Next() {
		tx, err := scanWalletTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet transactions: %w", err)
	}
	return transactions, nil
}

// ListAccountIDs returns every account id in ascending order
func (r *WalletRepository) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT user_id FROM wallet_accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SumBalances totals every cached balance
func (r *WalletRepository) SumBalances(ctx context.Context) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0)::BIGINT FROM wallet_accounts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum wallet balances: %w", err)
	}
	return total, nil
}

// GetFundingSources returns the distinct deposit sources per user
func (r *WalletRepository) GetFundingSources(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	sources := make(map[int64][]string)
	if len(userIDs) == 0 {
		return sources, nil
	}

	query := `
		SELECT DISTINCT user_id, transaction_metadata->>'funding_source' AS source
		FROM wallet_transactions
		WHERE user_id = ANY($1)
		  AND transaction_type = 'deposit'
		  AND COALESCE(transaction_metadata->>'funding_source', '') <> ''
		ORDER BY user_id, source
	`
	rows, err := r.q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get funding sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var source string
		if err := rows.Scan(&userID, &source); err != nil {
			return nil, fmt.Errorf("failed to scan funding source: %w", err)
		}
		sources[userID] = append(sources[userID], source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funding sources: %w", err)
	}
	return sources, nil
}

func scanWalletTransaction(row pgx.Row) (*entities.WalletTransaction, error) {
	var tx entities.WalletTransaction
	var txType string
	var metadataJSON []byte
	var relatedType *string

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&txType,
		&metadataJSON,
		&tx.RelatedID,
		&relatedType,
		&tx.ExternalRef,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.TransactionType = entities.TransactionType(txType)
	if relatedType != nil {
		rt := entities.RelatedType(*relatedType)
		tx.RelatedType = &rt
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &tx.TransactionMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}
	return &tx, nil
}
