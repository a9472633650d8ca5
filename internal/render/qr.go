// Package render produces the printable forms of a ticket: the QR image
// scanned at the gate and a PDF with one page per ticket.
package render

import (
	"encoding/base64"
	"fmt"

	"festival-tickets/models"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// Payloader encodes the JSON carried by a ticket's QR code.
type Payloader interface {
	Payload(t *models.Ticket) ([]byte, error)
}

// QR returns a PNG of content at medium error correction.
func QR(content []byte) ([]byte, error) {
	png, err := qrcode.Encode(string(content), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode: %w", err)
	}
	return png, nil
}

// TicketQR renders the ticket's scan payload and returns it base64 encoded.
func TicketQR(p Payloader, t *models.Ticket) (string, error) {
	payload, err := p.Payload(t)
	if err != nil {
		return "", err
	}
	png, err := QR(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
