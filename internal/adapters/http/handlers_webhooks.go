package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onerouter/gateway/internal/application"
)

// maxWebhookBodyBytes bounds provider deliveries; both providers stay far
// under this in practice.
const maxWebhookBodyBytes = 1 << 20

func (h *Handler) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeValidationError(r.Context(), w, "receive_webhook", err)
		return
	}

	headers := application.WebhookHeaders{
		RazorpaySignature:      r.Header.Get("X-Razorpay-Signature"),
		PayPalTransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		PayPalTransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
		PayPalTransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		PayPalAuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
		PayPalCertURL:          r.Header.Get("Paypal-Cert-Url"),
	}

	res, err := h.service.HandleWebhook(r.Context(), chi.URLParam(r, "provider"), body, headers)
	if err != nil {
		writeMappedError(r.Context(), w, "receive_webhook", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
