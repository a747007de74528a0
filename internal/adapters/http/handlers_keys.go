package http

import (
	"net/http"

	"github.com/onerouter/gateway/internal/application"
)

func (h *Handler) generateKey(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "generate_api_key")
		return
	}

	var req application.GenerateAPIKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "generate_api_key", err)
		return
	}

	// A tenant key can only mint keys for its own tenant; operator minting
	// for arbitrary tenants goes through the admin surface.
	if req.TenantID != auth.TenantID.String() {
		code := "FORBIDDEN"
		msg := "cannot mint keys for another tenant"
		logHTTPOperationError(r.Context(), "generate_api_key", http.StatusForbidden, code, msg, nil)
		writeError(w, http.StatusForbidden, code, msg)
		return
	}

	res, err := h.service.GenerateAPIKey(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "generate_api_key", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) adminGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req application.GenerateAPIKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "admin_generate_api_key", err)
		return
	}

	res, err := h.service.GenerateAPIKey(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "admin_generate_api_key", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "list_api_keys")
		return
	}

	items, err := h.service.ListAPIKeys(r.Context(), auth.TenantID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_api_keys", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"keys": items})
}
