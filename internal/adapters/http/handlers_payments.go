package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onerouter/gateway/internal/application"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "create_order")
		return
	}

	var req application.CreateOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_order", err)
		return
	}

	res, replayed, err := h.service.CreatePaymentOrder(r.Context(), auth, req, idempotencyKeyFromHeader(r))
	if err != nil {
		writeMappedError(r.Context(), w, "create_order", err)
		return
	}
	writeRawJSON(w, res.StatusCode, res.Body, replayed)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "get_order")
		return
	}

	res, err := h.service.GetPaymentOrder(r.Context(), auth, chi.URLParam(r, "transaction_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_order", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) createRefund(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "create_refund")
		return
	}

	var req application.CreateRefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_refund", err)
		return
	}

	res, replayed, err := h.service.CreateRefund(r.Context(), auth, req, idempotencyKeyFromHeader(r))
	if err != nil {
		writeMappedError(r.Context(), w, "create_refund", err)
		return
	}
	writeRawJSON(w, res.StatusCode, res.Body, replayed)
}
