package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
)

const maxBodyBytes = 1 << 20

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "request body too large or unreadable", err)
	}
	return body, nil
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := h.readBody(w, r)
	if err != nil {
		return err
	}
	return decodeStrict(body, v)
}

func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("invalid JSON body: %v", err), err)
	}
	return nil
}

// validateStruct 只返回第一个校验错误的翻译
func (h *Handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return apperr.Wrap(apperr.CodeValidation, validationErrors[0].Translate(h.translator), err)
	}
	return apperr.Wrap(apperr.CodeValidation, err.Error(), err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("无法写入响应", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

type Response struct {
	Success bool        `json:"success"`
	Code    apperr.Code `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    any         `json:"data"`
}

// errorResponse 根据错误类别决定状态码，只返回可公开的信息，完整错误写入日志
func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.CodeInternal, "unexpected error", err)
	}
	md := apperr.MetadataFor(typed.Code())

	switch typed.Code() {
	case apperr.CodeInternal, apperr.CodeUpstreamUnavailable:
		slog.Error("服务器内部错误", "request_id", requestIDFrom(r), "method", r.Method, "path", r.URL.Path, "code", typed.Code(), "error", err)
	default:
		slog.Debug("请求失败", "request_id", requestIDFrom(r), "method", r.Method, "path", r.URL.Path, "code", typed.Code(), "error", err)
	}

	h.writeJSON(w, r, md.HTTPStatus, Response{
		Success: false,
		Code:    typed.Code(),
		Message: typed.PublicMessage(),
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
