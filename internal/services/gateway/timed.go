package gateway

import (
	"context"
	"time"

	"festival-tickets/models"
)

// Timed reports the duration of every provider call to observe.
func Timed(gw Gateway, observe func(operation string, started time.Time)) Gateway {
	return &timed{Gateway: gw, observe: observe}
}

type timed struct {
	Gateway
	observe func(string, time.Time)
}

func (t *timed) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	defer t.observe("create_order", time.Now())
	return t.Gateway.CreateOrder(ctx, order)
}

func (t *timed) FetchPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	defer t.observe("fetch_payment", time.Now())
	return t.Gateway.FetchPayment(ctx, paymentID)
}

func (t *timed) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	defer t.observe("fetch_order", time.Now())
	return t.Gateway.FetchOrder(ctx, orderID)
}
