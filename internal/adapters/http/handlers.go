package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onerouter/gateway/internal/application"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler is the HTTP adapter entrypoint for gateway use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service        *application.Service
	operatorSecret []byte
}

// NewHandler constructs an HTTP handler bound to the application service.
// operatorSecret signs the JWTs accepted on the admin surface.
func NewHandler(service *application.Service, operatorSecret string) *Handler {
	return &Handler{service: service, operatorSecret: []byte(operatorSecret)}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "api_key_auth")
			return
		}

		auth, err := h.service.ValidateAPIKey(r.Context(), raw)
		if err != nil {
			writeMappedError(r.Context(), w, "api_key_auth", err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAuth, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) operatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "operator_auth")
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return h.operatorSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			code := "UNAUTHORIZED"
			msg := "invalid operator token"
			logHTTPOperationError(r.Context(), "operator_auth", http.StatusUnauthorized, code, msg, err)
			writeError(w, http.StatusUnauthorized, code, msg)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["scope"] != "operator" {
			code := "FORBIDDEN"
			msg := "operator scope required"
			logHTTPOperationError(r.Context(), "operator_auth", http.StatusForbidden, code, msg, nil)
			writeError(w, http.StatusForbidden, code, msg)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := decodeBody(r, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func idempotencyKeyFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	code := "VALIDATION_ERROR"
	msg := err.Error()
	logHTTPOperationError(ctx, operation, http.StatusBadRequest, code, msg, err)
	writeError(w, http.StatusBadRequest, code, msg)
}

func writeMissingBearerError(ctx context.Context, w http.ResponseWriter, operation string) {
	code := "UNAUTHORIZED"
	msg := "missing bearer token"
	logHTTPOperationError(ctx, operation, http.StatusUnauthorized, code, msg, nil)
	writeError(w, http.StatusUnauthorized, code, msg)
}
