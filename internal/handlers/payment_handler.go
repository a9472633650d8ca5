package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"festival-tickets/internal/render"
	"festival-tickets/internal/services"
	"festival-tickets/internal/services/gateway/sandbox"
	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/monitoring"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	orders   *services.OrderService
	checkout *services.Checkout
	codes    render.Payloader
	sandbox  *sandbox.Sandbox
}

func NewPaymentHandler(orders *services.OrderService, checkout *services.Checkout, codes render.Payloader, sb *sandbox.Sandbox) *PaymentHandler {
	return &PaymentHandler{
		orders:   orders,
		checkout: checkout,
		codes:    codes,
		sandbox:  sb,
	}
}

// CheckoutConfig - Public values the checkout page needs
func (h *PaymentHandler) CheckoutConfig(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, h.orders.CheckoutConfig())
}

// CreateOrder - Register a provider order for the requested tickets
func (h *PaymentHandler) CreateOrder(e *core.RequestEvent) error {
	var req models.OrderRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	order, err := h.orders.Create(e.Request.Context(), &req)
	if err != nil {
		return apiError("h.orders.Create()", err)
	}

	return e.JSON(http.StatusOK, order)
}

// VerifyPayment - Confirm a completed checkout and issue its tickets
func (h *PaymentHandler) VerifyPayment(e *core.RequestEvent) error {
	var conf models.PaymentConfirmation
	if err := e.BindBody(&conf); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	res, err := h.checkout.Confirm(e.Request.Context(), &conf)
	switch {
	case errors.Is(err, status.ErrPaymentNotCaptured):
		monitoring.TrackCheckout("not_captured")
		return e.JSON(http.StatusOK, map[string]any{"success": false, "redirect_url": "/"})
	case errors.Is(err, status.ErrSignatureMismatch):
		monitoring.TrackCheckout("signature_mismatch")
		return e.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Signature mismatch"})
	case err != nil:
		monitoring.TrackCheckout("error")
		return apiError("h.checkout.Confirm()", err)
	}

	if res.Created {
		monitoring.TrackCheckout("issued")
	} else {
		monitoring.TrackCheckout("replayed")
	}

	views, err := ticketViews(h.codes, res.Tickets)
	if err != nil {
		slog.Error("ticketViews()", "payment_id", conf.PaymentID, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	q := url.Values{}
	q.Set("payment_id", conf.PaymentID)
	q.Set("order_id", conf.OrderID)

	return e.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"tickets":      views,
		"redirect_url": "/success?" + q.Encode(),
	})
}

// SimulatePayment - Pay a sandbox order (sandbox provider only)
func (h *PaymentHandler) SimulatePayment(e *core.RequestEvent) error {
	if h.sandbox == nil {
		return apis.NewNotFoundError("", nil)
	}

	var req struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	var (
		conf *models.PaymentConfirmation
		err  error
	)
	switch models.PaymentStatus(req.Status) {
	case "", models.PaymentCaptured:
		conf, err = h.sandbox.Capture(ctx, req.OrderID)
	case models.PaymentAuthorized:
		conf, err = h.sandbox.Authorize(ctx, req.OrderID)
	default:
		return apis.NewBadRequestError("status must be captured or authorized", nil)
	}
	if err != nil {
		return apiError("h.sandbox.pay()", err)
	}

	return e.JSON(http.StatusOK, conf)
}

type ticketView struct {
	models.Ticket
	QRCode string `json:"qr_code"`
}

func ticketViews(codes render.Payloader, tickets []models.Ticket) ([]ticketView, error) {
	views := make([]ticketView, 0, len(tickets))
	for i := range tickets {
		qr, err := render.TicketQR(codes, &tickets[i])
		if err != nil {
			return nil, err
		}
		views = append(views, ticketView{Ticket: tickets[i], QRCode: qr})
	}
	return views, nil
}
