package web

import (
	"encoding/json"
	"net/http"

	"telegram-subscription-payments/internal/gateway/payme"
)

// handlePayme terminates the Payme JSON-RPC webhook. Protocol-level failures,
// including bad credentials, still answer HTTP 200 with a coded error body;
// Payme treats non-200 responses as outages and retries indefinitely.
func (s *Server) handlePayme(w http.ResponseWriter, r *http.Request) {
	var req payme.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, &payme.Response{Error: payme.ErrMethodNotFound})
		return
	}

	login, password, ok := r.BasicAuth()
	if !ok || !s.creds.Match(login, password) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("payme auth failed")
		writeJSON(w, http.StatusOK, &payme.Response{ID: req.ID, Error: payme.ErrInsufficientPrivilege})
		return
	}

	resp := s.paymeUC.Handle(r.Context(), &req)
	writeJSON(w, http.StatusOK, resp)
}
