package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Order is the provider-side record of an intended purchase. Amount is in
// minor currency units.
type Order struct {
	ID       string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`

	BuyerName  string `json:"name"`
	BuyerPhone string `json:"phone"`
	Quantity   int    `json:"quantity"`
}

// Notes returns the buyer fields in the form stored as provider order notes.
func (o *Order) Notes() map[string]string {
	return map[string]string{
		"name":     o.BuyerName,
		"phone":    o.BuyerPhone,
		"quantity": strconv.Itoa(o.Quantity),
	}
}

// ApplyNotes fills the buyer fields from provider order notes.
func (o *Order) ApplyNotes(notes map[string]string) error {
	q, err := strconv.Atoi(strings.TrimSpace(notes["quantity"]))
	if err != nil {
		return fmt.Errorf("order %s: quantity note %q: %w", o.ID, notes["quantity"], err)
	}
	o.BuyerName = notes["name"]
	o.BuyerPhone = notes["phone"]
	o.Quantity = q
	return nil
}

type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

type Payment struct {
	ID      string        `json:"payment_id"`
	OrderID string        `json:"order_id"`
	Status  PaymentStatus `json:"status"`
	Amount  int64         `json:"amount"`
}

// PaymentConfirmation is what the client-side checkout hands back after the
// buyer pays.
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifiedPurchase is the outcome of a successful payment verification. Buyer
// fields come from the provider order, never from the client.
type VerifiedPurchase struct {
	OrderID    string
	PaymentID  string
	Quantity   int
	BuyerName  string
	BuyerPhone string
	UnitPrice  decimal.Decimal
}

// OrderRequest is the buyer's input to order creation.
type OrderRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Quantity int    `json:"quantity"`
}

// CheckoutConfig is what the client-side checkout needs to open the
// provider's payment form.
type CheckoutConfig struct {
	KeyID      string          `json:"razorpay_key_id"`
	EventName  string          `json:"event_name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	MaxTickets int             `json:"max_tickets"`
}
