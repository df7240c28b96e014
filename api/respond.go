package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"wagerengine/domain/entities"

	log "github.com/sirupsen/logrus"
)

// errMissingActor is returned when a route needs X-User-ID and it is absent
var errMissingActor = errors.New("missing or invalid X-User-ID header")

// StatusForError maps domain errors onto HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, errMissingActor):
		return http.StatusUnauthorized
	case errors.Is(err, entities.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrWagerNotFound),
		errors.Is(err, entities.ErrAccountNotFound),
		errors.Is(err, entities.ErrDisputeNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrInvalidStateTransition),
		errors.Is(err, entities.ErrWagerFull),
		errors.Is(err, entities.ErrAlreadyJoined),
		errors.Is(err, entities.ErrCannotLeaveActiveMatch),
		errors.Is(err, entities.ErrDisputeOpen),
		errors.Is(err, entities.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, entities.ErrInsufficientFunds),
		errors.Is(err, entities.ErrTierRestricted),
		errors.Is(err, entities.ErrNotParticipant),
		errors.Is(err, entities.ErrNoAgreedWinner):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func respondWithData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
		if !errors.Is(err, entities.ErrLedgerInconsistency) {
			message = "internal error"
		}
	}
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", entities.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", entities.ErrValidation, name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: invalid %s", entities.ErrValidation, name)
	}
	return value, nil
}
