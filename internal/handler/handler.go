package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stitchhire/candidate-directory/backend/internal/auth"
	"github.com/stitchhire/candidate-directory/backend/internal/config"
	"github.com/stitchhire/candidate-directory/backend/internal/directory"
)

const tokenCookieName = "__candidate_directory_token"

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	resolver   *auth.Resolver
	directory  *directory.Service

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, resolver *auth.Resolver, dir *directory.Service) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		resolver:   resolver,
		directory:  dir,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 候选人目录
	h.Mux.Get("/candidates", h.ListAllCandidates)
	h.Mux.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Use(h.tenant)
		r.Get("/candidates", h.ListCandidates)
		r.Get("/candidates/{candidateID}", h.GetCandidate)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.GetMyProfile)
			r.Patch("/", h.UpdateMyProfile)
			r.Patch("/password", h.UpdateMyPassword)
		})
	})
}
