package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinica/internal/actor"
	"clinica/internal/consultation"
	"clinica/internal/platform/middleware"
	"clinica/internal/transport/http/shared"
	dErrors "clinica/pkg/domain-errors"
)

// Service is the slice of the consultation service the handler needs.
type Service interface {
	Create(ctx context.Context, req *consultation.CreateRequest, act *actor.Context) (*consultation.Consultation, error)
	UpdateLabResultStatus(ctx context.Context, id string, status consultation.LabStatus, result string, act *actor.Context) (*consultation.LabResult, error)
	Get(ctx context.Context, id string) (*consultation.Consultation, error)
	ListLabResults(ctx context.Context, patientID string) ([]consultation.LabResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the consultation and lab result routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consultations", h.handleCreate)
	r.Get("/consultations/{id}", h.handleGet)
	r.Patch("/lab-results/{id}/status", h.handleUpdateLabResultStatus)
	r.Get("/patients/{id}/lab-results", h.handleListLabResults)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req consultation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	cons, err := h.service.Create(r.Context(), &req, act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, cons)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	cons, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, cons)
}

func (h *Handler) handleUpdateLabResultStatus(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req struct {
		Status string `json:"status"`
		Result string `json:"result,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	lr, err := h.service.UpdateLabResultStatus(r.Context(), chi.URLParam(r, "id"),
		consultation.LabStatus(req.Status), req.Result, act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, lr)
}

func (h *Handler) handleListLabResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ListLabResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if results == nil {
		results = []consultation.LabResult{}
	}
	shared.WriteJSON(w, http.StatusOK, results)
}
