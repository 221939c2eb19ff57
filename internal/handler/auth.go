package handler

import (
	"net/http"
	"time"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	result, err := h.resolver.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	// 同时通过 http-only 的 cookie 返回给浏览器客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    result.Token,
		Expires:  result.Identity.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "login successful", result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
	})

	h.successResponse(w, r, "logout successful", nil)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}
