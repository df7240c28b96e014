package api

import (
	"fmt"
	"net/http"

	"wagerengine/domain/entities"
)

func (s *Server) createWager(w http.ResponseWriter, r *http.Request) {
	var body CreateWagerBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	req := entities.CreateWagerRequest{
		CreatorID:       actorFrom(r),
		Game:            body.Game,
		Platform:        body.Platform,
		StakeAmount:     body.StakeAmount,
		MaxParticipants: body.MaxParticipants,
		TournamentID:    body.TournamentID,
		TournamentRound: body.TournamentRound,
		CreatorStakes:   body.CreatorStakes,
	}
	for _, tier := range body.AllowedTiers {
		req.AllowedTiers = append(req.AllowedTiers, entities.SkillTier(tier))
	}

	wager, err := s.engine.CreateWager(r.Context(), req)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, toWagerResponse(wager))
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	status := entities.WagerStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = entities.WagerStatusOpen
	}
	switch status {
	case entities.WagerStatusOpen, entities.WagerStatusInProgress, entities.WagerStatusCompleted, entities.WagerStatusCancelled:
	default:
		respondWithError(w, r, fmt.Errorf("%w: unknown status %q", entities.ErrValidation, status))
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	wagers, err := s.queries.ListWagers(r.Context(), status, int(limit))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	resp := make([]WagerResponse, 0, len(wagers))
	for _, wager := range wagers {
		resp = append(resp, toWagerResponse(wager))
	}
	respondWithData(w, http.StatusOK, resp)
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	detail, err := s.queries.GetWagerDetail(r.Context(), wagerID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toWagerDetailResponse(detail))
}

func (s *Server) joinWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body JoinBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	wager, err := s.engine.Join(r.Context(), wagerID, actorFrom(r), body.StakeAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toWagerResponse(wager))
}

func (s *Server) leaveWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	wager, err := s.engine.Leave(r.Context(), wagerID, actorFrom(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toWagerResponse(wager))
}

func (s *Server) startWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	wager, err := s.engine.Start(r.Context(), wagerID, actorFrom(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toWagerResponse(wager))
}

func (s *Server) cancelWager(w http.ResponseWriter, r *http.Request) {
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

	outcome, err := s.engine.Cancel(r.Context(), wagerID, actorFrom(r), body.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toEscrowOutcomeResponse(outcome))
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body ReportBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	outcome, result, err := s.engine.SubmitReport(r.Context(), wagerID, actorFrom(r), body.WinnerID, body.ProofHash)
	if err != nil && outcome == nil {
		respondWithError(w, r, err)
		return
	}

	// A committed report whose follow-up settlement failed is still accepted
	resp := ReportResponse{
		Wager:         toWagerResponse(outcome.Wager),
		ReadyToSettle: outcome.ReadyToSettle,
		Dispute:       toDisputeResponse(outcome.Dispute),
		Settlement:    toSettlementResponse(result),
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusAccepted
	}
	respondWithData(w, status, resp)
}

func (s *Server) openDispute(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var body DisputeBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, r, err)
		return
	}

	dispute, err := s.engine.OpenDispute(r.Context(), wagerID, actorFrom(r), body.Description)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, toDisputeResponse(dispute))
}

func (s *Server) settleWager(w http.ResponseWriter, r *http.Request) {
	wagerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	result, err := s.engine.Settle(r.Context(), wagerID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, toSettlementResponse(result))
}

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	transitions, err := s.queries.ListTransitionsAfter(r.Context(), after, int(limit))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	resp := FeedResponse{
		Transitions: make([]TransitionResponse, 0, len(transitions)),
		NextAfter:   after,
	}
	for _, t := range transitions {
		resp.Transitions = append(resp.Transitions, toTransitionResponse(t))
		resp.NextAfter = t.ID
	}
	respondWithData(w, http.StatusOK, resp)
}
