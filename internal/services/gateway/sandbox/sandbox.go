package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"

	"github.com/google/uuid"
)

// Sandbox is an in-process payment provider for development. Orders and
// payments live in memory and payments are settled with Capture.
type Sandbox struct {
	keyID  string
	secret string

	mu       sync.RWMutex
	orders   map[string]models.Order
	payments map[string]models.Payment
}

func New(keyID, secret string) *Sandbox {
	return &Sandbox{
		keyID:    keyID,
		secret:   secret,
		orders:   make(map[string]models.Order),
		payments: make(map[string]models.Payment),
	}
}

func (s *Sandbox) Name() string {
	return "sandbox"
}

func (s *Sandbox) KeyID() string {
	return s.keyID
}

func (s *Sandbox) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Amount <= 0 {
		return nil, fmt.Errorf("CreateOrder: amount %d: %w", order.Amount, status.ErrValidation)
	}

	o := *order
	o.ID = newID("order")

	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()

	return &o, nil
}

func (s *Sandbox) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("FetchOrder %s: %w", orderID, status.ErrOrderNotFound)
	}
	return &o, nil
}

func (s *Sandbox) FetchPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("FetchPayment %s: %w", paymentID, status.ErrPaymentNotFound)
	}
	return &p, nil
}

// Capture settles the order with a captured payment and returns the callback
// the client-side checkout would hand back.
func (s *Sandbox) Capture(ctx context.Context, orderID string) (*models.PaymentConfirmation, error) {
	return s.pay(orderID, models.PaymentCaptured)
}

// Authorize records a payment that was authorized but never captured.
func (s *Sandbox) Authorize(ctx context.Context, orderID string) (*models.PaymentConfirmation, error) {
	return s.pay(orderID, models.PaymentAuthorized)
}

func (s *Sandbox) pay(orderID string, st models.PaymentStatus) (*models.PaymentConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("pay %s: %w", orderID, status.ErrOrderNotFound)
	}

	p := models.Payment{
		ID:      newID("pay"),
		OrderID: o.ID,
		Status:  st,
		Amount:  o.Amount,
	}
	s.payments[p.ID] = p

	return &models.PaymentConfirmation{
		OrderID:   o.ID,
		PaymentID: p.ID,
		Signature: utils.HmacSHA256Hex(s.secret, o.ID+"|"+p.ID),
	}, nil
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
