package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type planRequest struct {
	Name         string `json:"name"`
	DurationDays int    `json:"duration_days"`
	PriceSom     int64  `json:"price_som"`
}

type planResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationDays int    `json:"duration_days"`
	PriceSom     int64  `json:"price_som"`
}

func toPlanResponse(p *model.Plan) planResponse {
	return planResponse{
		ID:           p.ID,
		Name:         p.Name,
		DurationDays: p.DurationDays,
		PriceSom:     p.Price.Value,
	}
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := s.planUC.Create(r.Context(), req.Name, req.DurationDays, req.PriceSom)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := s.planUC.Update(r.Context(), id, req.Name, req.DurationDays, req.PriceSom)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to update plan", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Plan not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrOperationFailed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
