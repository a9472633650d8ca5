package handlers

import (
	"festival-tickets/security"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

type Routes struct {
	Payments *PaymentHandler
	Tickets  *TicketHandler
	Admin    *AdminHandler
	Health   *HealthHandler

	// LoginLimit is optional.
	LoginLimit *security.RateLimiter
}

// Register mounts the HTTP API on r.
func (rt *Routes) Register(r *router.Router[*core.RequestEvent]) {
	r.GET("/health", rt.Health.Health)
	r.GET("/ready", rt.Health.Ready)

	v1 := r.Group("/api/v1")

	v1.GET("/checkout/config", rt.Payments.CheckoutConfig)
	v1.POST("/orders", rt.Payments.CreateOrder)
	v1.POST("/payments/verify", rt.Payments.VerifyPayment)
	v1.GET("/payments/{paymentId}/tickets", rt.Tickets.GetTickets)
	v1.GET("/payments/{paymentId}/tickets.pdf", rt.Tickets.DownloadPDF)
	v1.POST("/test/simulate-payment", rt.Payments.SimulatePayment)

	admin := v1.Group("/admin")
	login := admin.POST("/login", rt.Admin.Login)
	if rt.LoginLimit != nil {
		login.BindFunc(rt.LoginLimit.LoginRateLimit())
	}
	admin.POST("/logout", rt.Admin.Logout)
	admin.POST("/validate-qr", rt.Admin.ValidateQR)

	guard := security.RequireOperator(rt.Admin.guard.Authorize)
	admin.GET("/logins", rt.Admin.Logins).BindFunc(guard)
	admin.GET("/stats", rt.Admin.Stats).BindFunc(guard)
}
