package http

import (
	"net/http"

	"github.com/onerouter/gateway/internal/application"
)

func (h *Handler) rotateEncryptionKey(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.RotateEncryptionKey()
	if err != nil {
		writeMappedError(r.Context(), w, "rotate_encryption_key", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) encryptionStatus(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.EncryptionStatus())
}

func (h *Handler) pruneEncryptionKeys(w http.ResponseWriter, r *http.Request) {
	var req application.PruneKeysRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "prune_encryption_keys", err)
		return
	}
	writeSuccess(w, http.StatusOK, h.service.PruneEncryptionKeys(req))
}
