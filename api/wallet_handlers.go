package api

import (
	"context"
	"fmt"
	"net/http"

	"wagerengine/domain/entities"
)

// walletOwner parses {userID} and checks the actor may act on that wallet
func walletOwner(r *http.Request) (int64, error) {
	userID, err := pathID(r, "userID")
	if err != nil {
		return 0, err
	}
	if !canAccessWallet(r, userID) {
		return 0, fmt.Errorf("%w: wallet %d belongs to another user", entities.ErrUnauthorized, userID)
	}
	return userID, nil
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := walletOwner(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	account, err := s.queries.GetWallet(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, WalletResponse{
		UserID:    account.UserID,
		Balance:   account.Balance,
		UpdatedAt: account.UpdatedAt,
	})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := walletOwner(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	transactions, err := s.queries.ListTransactions(r.Context(), userID, int(limit))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	resp := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, toTransactionResponse(tx))
	}
	respondWithData(w, http.StatusOK, resp)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.fund(w, r, s.engine.Deposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.fund(w, r, s.engine.Withdraw)
}

// fund runs behind withFundingActor, so the target wallet is any user's
func (s *Server) fund(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, req entities.FundingRequest) (*entities.WalletTransaction, error)) {
	userID, err := pathID(r, "userID")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body FundingBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	tx, err := apply(r.Context(), entities.FundingRequest{
		UserID:        userID,
		Amount:        body.Amount,
		ExternalRef:   body.ExternalRef,
		FundingSource: body.FundingSource,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toTransactionResponse(tx))
}
