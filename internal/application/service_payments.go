package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onerouter/gateway/internal/domain"
	"github.com/onerouter/gateway/internal/idempotency"
	"github.com/onerouter/gateway/internal/ports"
)

// CreatePaymentOrder creates a unified order through the tenant's routed
// provider. The whole call runs under the idempotency controller; a missing
// Idempotency-Key gets a generated one so the lock path is always exercised.
func (s *Service) CreatePaymentOrder(ctx context.Context, auth AuthContext, req CreateOrderRequest, idempotencyKey string) (idempotency.Response, bool, error) {
	amount, err := domain.ParseAmount(req.Amount, req.Currency)
	if err != nil {
		return idempotency.Response{}, false, err
	}
	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		return idempotency.Response{}, false, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	return s.idempotency.Execute(ctx, auth.APIKeyID, idempotencyKey, req, func(ctx context.Context) (idempotency.Response, error) {
		requested := auth.Environment
		adapter, env, err := s.router.GetAdapter(ctx, auth.TenantID, provider, &requested)
		if err != nil {
			return idempotency.Response{}, err
		}

		order, err := adapter.CreateOrder(ctx, ports.CreateOrderParams{
			Amount:    amount,
			TenantID:  auth.TenantID.String(),
			Receipt:   req.Receipt,
			Notes:     req.Notes,
			ReturnURL: req.ReturnURL,
			CancelURL: req.CancelURL,
		})
		if err != nil {
			return idempotency.Response{}, err
		}

		s.recordTransaction(ctx, auth, order.TransactionID, provider, env, http.MethodPost, "/v1/payments/orders", http.StatusCreated)

		body, err := json.Marshal(toOrderResponse(order, env))
		if err != nil {
			return idempotency.Response{}, fmt.Errorf("encode order response: %w", err)
		}
		return idempotency.Response{StatusCode: http.StatusCreated, Body: body}, nil
	})
}

// GetPaymentOrder fetches current provider state for a unified transaction
// id. The transaction log resolves which provider owns the id; the id shape
// is the fallback for ids created before logging existed.
func (s *Service) GetPaymentOrder(ctx context.Context, auth AuthContext, transactionID string) (OrderResponse, error) {
	if !strings.HasPrefix(transactionID, domain.TransactionIDPrefix) {
		return OrderResponse{}, fmt.Errorf("%w: malformed transaction id", domain.ErrInvalidInput)
	}

	provider := s.providerForTransaction(ctx, auth, transactionID)
	requested := auth.Environment
	adapter, env, err := s.router.GetAdapter(ctx, auth.TenantID, provider, &requested)
	if err != nil {
		return OrderResponse{}, err
	}

	providerOrderID := strings.TrimPrefix(transactionID, domain.TransactionIDPrefix)
	order, err := adapter.GetOrder(ctx, providerOrderID)
	if err != nil {
		return OrderResponse{}, err
	}

	s.recordTransaction(ctx, auth, transactionID, provider, env, http.MethodGet, "/v1/payments/orders/"+transactionID, http.StatusOK)
	return toOrderResponse(order, env), nil
}

// CreateRefund issues a refund against a provider payment or capture id.
func (s *Service) CreateRefund(ctx context.Context, auth AuthContext, req CreateRefundRequest, idempotencyKey string) (idempotency.Response, bool, error) {
	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		return idempotency.Response{}, false, err
	}

	var amount domain.Amount
	if req.Amount != "" {
		amount, err = domain.ParseAmount(req.Amount, req.Currency)
		if err != nil {
			return idempotency.Response{}, false, err
		}
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	return s.idempotency.Execute(ctx, auth.APIKeyID, idempotencyKey, req, func(ctx context.Context) (idempotency.Response, error) {
		requested := auth.Environment
		adapter, env, err := s.router.GetAdapter(ctx, auth.TenantID, provider, &requested)
		if err != nil {
			return idempotency.Response{}, err
		}

		refund, err := adapter.CreateRefund(ctx, ports.CreateRefundParams{
			PaymentID: req.PaymentID,
			Amount:    amount,
		})
		if err != nil {
			return idempotency.Response{}, err
		}

		s.recordTransaction(ctx, auth, refund.RefundID, provider, env, http.MethodPost, "/v1/payments/refunds", http.StatusCreated)

		resp := RefundResponse{
			RefundID:         refund.RefundID,
			Provider:         string(refund.Provider),
			ProviderRefundID: refund.ProviderRefundID,
			PaymentID:        refund.PaymentID,
			Status:           string(refund.Status),
			Environment:      string(env),
		}
		if !refund.Amount.IsZero() {
			resp.Amount = refund.Amount.MajorString()
			resp.Currency = refund.Amount.Currency
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return idempotency.Response{}, fmt.Errorf("encode refund response: %w", err)
		}
		return idempotency.Response{StatusCode: http.StatusCreated, Body: body}, nil
	})
}

func (s *Service) resolveProvider(raw string) (domain.Provider, error) {
	if raw == "" {
		return s.cfg.DefaultProvider, nil
	}
	return domain.ParseProvider(raw)
}

// providerForTransaction consults the transaction log first. Razorpay order
// ids keep their "order_" shape inside the unified id, which is the tiebreak
// when no log row exists.
func (s *Service) providerForTransaction(ctx context.Context, auth AuthContext, transactionID string) domain.Provider {
	log, err := s.transactionLogs.GetByTransactionID(ctx, auth.TenantID, transactionID)
	if err == nil {
		return log.Provider
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("transaction log lookup failed",
			"operation", "get_payment_order",
			"outcome", "degraded",
			"transaction_id", transactionID,
			"error", err.Error(),
		)
	}

	if strings.HasPrefix(strings.TrimPrefix(transactionID, domain.TransactionIDPrefix), "order_") {
		return domain.ProviderRazorpay
	}
	return domain.ProviderPayPal
}

func (s *Service) recordTransaction(ctx context.Context, auth AuthContext, transactionID string, provider domain.Provider, env domain.Environment, method, endpoint string, status int) {
	apiKeyID := auth.APIKeyID
	log := domain.TransactionLog{
		LogID:         uuid.New(),
		TenantID:      auth.TenantID,
		APIKeyID:      &apiKeyID,
		TransactionID: transactionID,
		Provider:      provider,
		Environment:   env,
		Method:        method,
		Endpoint:      endpoint,
		StatusCode:    status,
		CreatedAt:     s.nowFn(),
	}
	if err := s.transactionLogs.Insert(ctx, log); err != nil {
		// The payment already happened; a missing log row is observability
		// loss, not a request failure.
		s.logger.Error("transaction log insert failed",
			"operation", "record_transaction",
			"outcome", "failure",
			"transaction_id", transactionID,
			"error", err.Error(),
		)
	}
}

func toOrderResponse(order domain.UnifiedOrder, env domain.Environment) OrderResponse {
	resp := OrderResponse{
		TransactionID:   order.TransactionID,
		Provider:        string(order.Provider),
		ProviderOrderID: order.ProviderOrderID,
		Amount:          order.Amount.MajorString(),
		Currency:        order.Amount.Currency,
		Status:          string(order.Status),
		Receipt:         order.Receipt,
		CheckoutURL:     order.CheckoutURL,
		Environment:     string(env),
	}
	if !order.CreatedAt.IsZero() {
		resp.CreatedAt = order.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
