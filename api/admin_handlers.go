package api

import (
	"net/http"
)

func (s *Server) forceSettle(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ForceSettleBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := s.engine.ForceSettle(r.Context(), wagerID, body.WinnerID, actorFrom(r), body.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toSettlementResponse(result))
}

func (s *Server) forceRefund(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ReasonBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	outcome, err := s.engine.ForceRefund(r.Context(), wagerID, actorFrom(r), body.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toEscrowOutcomeResponse(outcome))
}

func (s *Server) markDispute(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ReasonBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	wager, err := s.engine.MarkDispute(r.Context(), wagerID, actorFrom(r), body.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toWagerResponse(wager))
}

func (s *Server) forceSplit(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ForceSplitBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := s.engine.ForceSplit(r.Context(), wagerID, body.Shares, actorFrom(r), body.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toSettlementResponse(result))
}

func (s *Server) resolveDispute(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ResolveDisputeBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	dispute, err := s.engine.ResolveDispute(r.Context(), disputeID, actorFrom(r), body.Response, body.Reject)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toDisputeResponse(dispute))
}
