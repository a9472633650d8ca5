package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"festival-tickets/internal/services/gateway"
	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"

	"github.com/shopspring/decimal"
)

type OrderConfig struct {
	EventName  string
	EventCode  string
	UnitPrice  decimal.Decimal
	Currency   string
	MaxTickets int
}

// OrderService creates provider orders for ticket purchases.
type OrderService struct {
	gw  gateway.Gateway
	cfg OrderConfig
	now func() time.Time
}

func NewOrderService(gw gateway.Gateway, cfg OrderConfig) *OrderService {
	return &OrderService{gw: gw, cfg: cfg, now: time.Now}
}

func (s *OrderService) CheckoutConfig() models.CheckoutConfig {
	return models.CheckoutConfig{
		KeyID:      s.gw.KeyID(),
		EventName:  s.cfg.EventName,
		UnitPrice:  s.cfg.UnitPrice,
		Currency:   s.cfg.Currency,
		MaxTickets: s.cfg.MaxTickets,
	}
}

// Amount returns unit price times quantity in minor currency units.
func (s *OrderService) Amount(quantity int) int64 {
	return s.cfg.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Shift(2).Round(0).IntPart()
}

// Create validates req and registers the order with the provider. A zero
// quantity means one ticket.
func (s *OrderService) Create(ctx context.Context, req *models.OrderRequest) (*models.Order, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", status.ErrValidation)
	case phone == "":
		return nil, fmt.Errorf("%w: phone is required", status.ErrValidation)
	case quantity < 1 || quantity > s.cfg.MaxTickets:
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", status.ErrValidation, s.cfg.MaxTickets)
	}

	refID, err := utils.GenerateDigits(4)
	if err != nil {
		return nil, fmt.Errorf("utils.GenerateDigits: %w", err)
	}

	order, err := s.gw.CreateOrder(ctx, &models.Order{
		Amount:     s.Amount(quantity),
		Currency:   s.cfg.Currency,
		Receipt:    fmt.Sprintf("%s_%d_%s", s.cfg.EventCode, s.now().Unix(), refID),
		BuyerName:  name,
		BuyerPhone: phone,
		Quantity:   quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("gw.CreateOrder: %w", err)
	}

	return order, nil
}
