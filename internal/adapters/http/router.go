package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers the gateway HTTP routes and middleware stack.
// Centralizing routes here keeps auth and error behavior consistent across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/v1", func(r chi.Router) {
		// Webhooks carry no API key; signature verification is the auth.
		r.Post("/webhooks/{provider}", handler.receiveWebhook)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/payments/orders", handler.createOrder)
			r.Get("/payments/orders/{transaction_id}", handler.getOrder)
			r.Post("/payments/refunds", handler.createRefund)
			r.Post("/keys", handler.generateKey)
			r.Get("/keys", handler.listKeys)
			r.Post("/credentials", handler.connectCredentials)
			r.Get("/credentials", handler.listCredentials)
			r.Delete("/credentials/{provider}/{environment}", handler.disconnectCredentials)
		})
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(handler.operatorMiddleware)
		r.Post("/keys", handler.adminGenerateKey)
		r.Post("/encryption/rotate", handler.rotateEncryptionKey)
		r.Get("/encryption/status", handler.encryptionStatus)
		r.Post("/encryption/prune", handler.pruneEncryptionKeys)
	})

	return r
}
