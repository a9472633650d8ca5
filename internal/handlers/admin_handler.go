package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"festival-tickets/internal/services"
	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/security"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const entryTimeLayout = "2006-01-02 15:04:05"

type AdminHandler struct {
	guard     *services.SessionGuard
	validator *services.EntryValidator
	reporting *services.Reporting
	currency  string
}

func NewAdminHandler(guard *services.SessionGuard, validator *services.EntryValidator, reporting *services.Reporting, currency string) *AdminHandler {
	return &AdminHandler{
		guard:     guard,
		validator: validator,
		reporting: reporting,
		currency:  currency,
	}
}

// Login - Exchange operator credentials for a session token
func (h *AdminHandler) Login(e *core.RequestEvent) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token, err := h.guard.Login(e.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return e.JSON(http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
	case err != nil:
		return apiError("h.guard.Login()", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"success": true, "token": token})
}

// Logout - Revoke the caller's session
func (h *AdminHandler) Logout(e *core.RequestEvent) error {
	if err := h.guard.Logout(e.Request.Context(), security.OperatorToken(e)); err != nil {
		return apiError("h.guard.Logout()", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"success": true})
}

// ValidateQR - Gate scan of a ticket code
func (h *AdminHandler) ValidateQR(e *core.RequestEvent) error {
	var req struct {
		QRData     string `json:"qr_data"`
		AdminToken string `json:"admin_token"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token := req.AdminToken
	if token == "" {
		token = security.OperatorToken(e)
	}

	res, err := h.validator.Validate(e.Request.Context(), token, strings.TrimSpace(req.QRData))
	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return e.JSON(http.StatusUnauthorized, map[string]any{"valid": false, "message": "Unauthorized"})
	case errors.Is(err, status.ErrMalformedCode):
		return e.JSON(http.StatusOK, map[string]any{"valid": false, "message": "Invalid QR code format"})
	case errors.Is(err, status.ErrNotFound):
		return e.JSON(http.StatusOK, map[string]any{"valid": false, "message": "Invalid QR - Not Found"})
	case err != nil:
		return apiError("h.validator.Validate()", err)
	}

	if res.Outcome == models.ScanDuplicate {
		body := map[string]any{
			"valid":       false,
			"message":     "DUPLICATE - Already scanned",
			"ticket_id":   res.TicketID,
			"holder_name": res.HolderName,
		}
		if res.EntryTime != nil {
			body["entry_time"] = res.EntryTime.Format(entryTimeLayout)
		}
		return e.JSON(http.StatusOK, body)
	}

	details := map[string]any{
		"ticket_id":  res.TicketID,
		"name":       res.HolderName,
		"phone":      res.HolderPhone,
		"price_paid": h.currency + " " + res.PricePaid.StringFixed(2),
	}
	if res.EntryTime != nil {
		details["entry_time"] = res.EntryTime.Format(entryTimeLayout)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"valid":          true,
		"message":        "ENTRY APPROVED",
		"ticket_details": details,
	})
}

// Logins - Recent operator logins, newest first
func (h *AdminHandler) Logins(e *core.RequestEvent) error {
	limit, _ := strconv.Atoi(e.Request.URL.Query().Get("limit"))

	logs, err := h.reporting.Logins(e.Request.Context(), limit)
	if err != nil {
		return apiError("h.reporting.Logins()", err)
	}
	if logs == nil {
		logs = []models.LoginAudit{}
	}
	return e.JSON(http.StatusOK, logs)
}

// Stats - Sales and entry counters
func (h *AdminHandler) Stats(e *core.RequestEvent) error {
	st, err := h.reporting.Stats(e.Request.Context())
	if err != nil {
		return apiError("h.reporting.Stats()", err)
	}
	return e.JSON(http.StatusOK, st)
}
