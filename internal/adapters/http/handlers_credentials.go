package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onerouter/gateway/internal/application"
)

func (h *Handler) connectCredentials(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "connect_credentials")
		return
	}

	var req application.ConnectCredentialsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "connect_credentials", err)
		return
	}

	res, err := h.service.ConnectCredentials(r.Context(), auth.TenantID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "connect_credentials", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "list_credentials")
		return
	}

	items, err := h.service.ListCredentials(r.Context(), auth.TenantID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_credentials", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"credentials": items})
}

func (h *Handler) disconnectCredentials(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "disconnect_credentials")
		return
	}

	provider := chi.URLParam(r, "provider")
	environment := chi.URLParam(r, "environment")
	if err := h.service.DisconnectCredentials(r.Context(), auth.TenantID, provider, environment); err != nil {
		writeMappedError(r.Context(), w, "disconnect_credentials", err)
		return
	}
	writeMessage(w, http.StatusOK, "Credentials disconnected")
}
