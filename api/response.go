package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"crowdfund_dao/contract"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, SuccessResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, ErrorResponse{Status: "error", Error: ErrorPayload{Code: code, Message: message, RequestID: requestID}})
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, contract.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, contract.ErrProposalNotFound):
		return http.StatusNotFound, "proposal_not_found"
	case errors.Is(err, contract.ErrAlreadyVoted):
		return http.StatusConflict, "already_voted"
	case errors.Is(err, contract.ErrVotingClosed):
		return http.StatusConflict, "voting_closed"
	case errors.Is(err, contract.ErrInsufficientContribution):
		return http.StatusUnprocessableEntity, "insufficient_contribution"
	case errors.Is(err, contract.ErrInvalidAmount), errors.Is(err, contract.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
