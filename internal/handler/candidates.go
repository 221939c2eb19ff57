package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

func (h *Handler) ListAllCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.directory.ListAll(r.Context())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "candidates fetched", candidates)
}

func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(TenantCtxKey).(domain.TenantID)

	candidates, err := h.directory.List(r.Context(), tenant)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "candidates fetched", candidates)
}

func (h *Handler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	tenant := r.Context().Value(TenantCtxKey).(domain.TenantID)

	candidate, err := h.directory.Get(r.Context(), tenant, chi.URLParam(r, "candidateID"))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "candidate fetched", candidate)
}
