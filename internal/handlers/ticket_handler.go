package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"festival-tickets/internal/render"
	"festival-tickets/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	reporting *services.Reporting
	codes     render.Payloader
	eventName string
	currency  string
}

func NewTicketHandler(reporting *services.Reporting, codes render.Payloader, eventName, currency string) *TicketHandler {
	return &TicketHandler{
		reporting: reporting,
		codes:     codes,
		eventName: eventName,
		currency:  currency,
	}
}

// GetTickets - Purchase confirmation with scannable codes
func (h *TicketHandler) GetTickets(e *core.RequestEvent) error {
	paymentID := e.Request.PathValue("paymentId")

	sum, err := h.reporting.Purchase(e.Request.Context(), paymentID)
	if err != nil {
		return apiError("h.reporting.Purchase()", err)
	}

	views, err := ticketViews(h.codes, sum.Tickets)
	if err != nil {
		slog.Error("ticketViews()", "payment_id", paymentID, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"payment_id": sum.PaymentID,
		"order_id":   sum.OrderID,
		"quantity":   sum.Quantity,
		"price":      sum.UnitPrice,
		"total":      sum.Total,
		"tickets":    views,
	})
}

// DownloadPDF - Printable tickets, one page each
func (h *TicketHandler) DownloadPDF(e *core.RequestEvent) error {
	paymentID := e.Request.PathValue("paymentId")

	sum, err := h.reporting.Purchase(e.Request.Context(), paymentID)
	if err != nil {
		return apiError("h.reporting.Purchase()", err)
	}

	var buf bytes.Buffer
	err = render.TicketsPDF(&buf, h.codes, sum.Tickets, render.PDFOptions{
		EventName: h.eventName,
		Currency:  h.currency,
	})
	if err != nil {
		slog.Error("render.TicketsPDF()", "payment_id", paymentID, "error", err)
		return apis.NewInternalServerError("internal error", nil)
	}

	e.Response.Header().Set("Content-Disposition", `attachment; filename="tickets_`+paymentID+`.pdf"`)
	return e.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
