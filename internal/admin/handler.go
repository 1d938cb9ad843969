// Package admin implements the operator-facing virtual-key provisioning
// surface: an admin-token gate plus create/list handlers, grounded on the
// API-key admin surface's Service/Handler split.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/relaykey/internal/httpserver"
)

// Handler provides HTTP handlers for virtual-key provisioning.
type Handler struct {
	log     *slog.Logger
	service *Service
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns a chi.Router with the virtual-key admin routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/virtual-keys", h.handleCreate)
	r.Get("/virtual-keys", h.handleList)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.log.Error("admin: creating virtual key failed", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create virtual key")
		return
	}

	httpserver.Respond(w, http.StatusCreated, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.log.Error("admin: listing virtual keys failed", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list virtual keys")
		return
	}

	httpserver.Respond(w, http.StatusOK, items)
}
