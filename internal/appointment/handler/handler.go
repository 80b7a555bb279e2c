package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinica/internal/actor"
	"clinica/internal/appointment"
	"clinica/internal/platform/middleware"
	"clinica/internal/transport/http/shared"
	dErrors "clinica/pkg/domain-errors"
)

// Service is the slice of the appointment service the handler needs.
type Service interface {
	Create(ctx context.Context, req *appointment.CreateRequest, act *actor.Context) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status appointment.Status, act *actor.Context) (*appointment.Appointment, error)
	Get(ctx context.Context, id string) (*appointment.Appointment, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the appointment routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/appointments", h.handleCreate)
	r.Get("/appointments/{id}", h.handleGet)
	r.Patch("/appointments/{id}/status", h.handleUpdateStatus)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req appointment.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	appt, err := h.service.Create(r.Context(), &req, act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	appt, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		appointment.Status(req.Status), act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, appt)
}
