package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/utils"
)

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	identity := r.Context().Value(IdentityCtxKey).(*domain.Identity)

	profile, err := h.resolver.GetProfile(r.Context(), identity)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "profile fetched", profile)
}

func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	identity := r.Context().Value(IdentityCtxKey).(*domain.Identity)

	body, err := h.readBody(w, r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	// 先检查是否试图修改不可变字段，再按允许的字段严格解析
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		h.errorResponse(w, r, apperr.Wrap(apperr.CodeValidation, "invalid JSON body", err))
		return
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	if err := utils.ValidateProfilePatch(keys); err != nil {
		h.errorResponse(w, r, apperr.Wrap(apperr.CodeValidation, err.Error(), err))
		return
	}

	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,max=200"`
		Phone    *string `json:"phone" validate:"omitempty,max=32"`
	}
	if err := decodeStrict(body, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	profile, err := h.resolver.UpdateProfile(r.Context(), identity, domain.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "profile updated", profile)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	identity := r.Context().Value(IdentityCtxKey).(*domain.Identity)

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.resolver.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.successResponse(w, r, "password updated", nil)
}
