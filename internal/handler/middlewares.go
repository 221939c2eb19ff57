package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	// WroteHeader 为 true 表示状态码已经发送给客户端
	WroteHeader bool
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	if rw.WroteHeader {
		return
	}
	rw.StatusCode = statusCode
	rw.WroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.WroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDCtxKey).(string)
	return id
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), RequestIDCtxKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "request_id", requestIDFrom(r), "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic", "request_id", requestIDFrom(r), "error", err, "stack", string(debug.Stack()))
				// 响应已经开始发送时不能再写入错误信息
				if rw.WroteHeader {
					return
				}
				h.errorResponse(rw, r, apperr.New(apperr.CodeInternal, fmt.Sprintf("panic: %v", err)))
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// bearerToken 优先读取 Authorization 头，其次读取登录时设置的 cookie
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.resolver.Authenticate(bearerToken(r))
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityCtxKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := domain.ParseTenantID(chi.URLParam(r, "tenant"))
		if err != nil {
			h.errorResponse(w, r, apperr.Wrap(apperr.CodeNotFound, "tenant not found", err))
			return
		}

		ctx := context.WithValue(r.Context(), TenantCtxKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
