package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinica/internal/actor"
	"clinica/internal/affiliation"
	"clinica/internal/platform/middleware"
	"clinica/internal/transport/http/shared"
	dErrors "clinica/pkg/domain-errors"
)

// Service is the slice of the affiliation service the handler needs.
type Service interface {
	CreateCompany(ctx context.Context, req *affiliation.CreateCompanyRequest, act *actor.Context) (*affiliation.Company, error)
	CreateAffiliation(ctx context.Context, req *affiliation.CreateRequest, act *actor.Context) (*affiliation.Affiliation, error)
	GetAffiliation(ctx context.Context, id string) (*affiliation.Affiliation, error)
	ListCompanies(ctx context.Context) ([]affiliation.Company, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the company and affiliation routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/companies", h.handleCreateCompany)
	r.Get("/companies", h.handleListCompanies)
	r.Post("/affiliations", h.handleCreateAffiliation)
	r.Get("/affiliations/{id}", h.handleGetAffiliation)
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req affiliation.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	company, err := h.service.CreateCompany(r.Context(), &req, act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, company)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, companies)
}

func (h *Handler) handleCreateAffiliation(w http.ResponseWriter, r *http.Request) {
	act := middleware.GetActor(r.Context())
	if act == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req affiliation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	aff, err := h.service.CreateAffiliation(r.Context(), &req, act)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, aff)
}

func (h *Handler) handleGetAffiliation(w http.ResponseWriter, r *http.Request) {
	aff, err := h.service.GetAffiliation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, aff)
}
