package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"

	"github.com/google/uuid"
)

// CodeIssuer derives ticket identifiers and the payload that goes into a
// ticket's scannable code.
type CodeIssuer struct {
	eventName string
	eventCode string
}

func NewCodeIssuer(eventName, eventCode string) *CodeIssuer {
	return &CodeIssuer{eventName: eventName, eventCode: eventCode}
}

// NewToken returns a qr_token made of a random UUIDv4 and the unix time.
func (c *CodeIssuer) NewToken(at time.Time) string {
	return uuid.NewString() + "-" + strconv.FormatInt(at.Unix(), 10)
}

// NewTicketID returns "<EVENT>-<YYYYMMDD>-<5 digits>-<seq>". seq is the
// 1-based position of the ticket within its order.
func (c *CodeIssuer) NewTicketID(at time.Time, seq int) (string, error) {
	suffix, err := utils.GenerateDigits(5)
	if err != nil {
		return "", fmt.Errorf("utils.GenerateDigits: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s-%02d", c.eventCode, at.Format("20060102"), suffix, seq), nil
}

// Payload returns the code payload of t. It carries no price or phone.
func (c *CodeIssuer) Payload(t *models.Ticket) ([]byte, error) {
	return json.Marshal(models.CodePayload{
		TicketID:  t.TicketID,
		QRToken:   t.QRToken,
		Event:     c.eventName,
		Timestamp: strconv.FormatInt(t.CreatedAt.Unix(), 10),
	})
}

// ParsePayload decodes a scanned code. Anything that is not a JSON object
// with a non-empty qr_token is status.ErrMalformedCode.
func ParsePayload(raw string) (*models.CodePayload, error) {
	var p models.CodePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedCode, err)
	}
	if p.QRToken == "" {
		return nil, fmt.Errorf("%w: qr_token missing", status.ErrMalformedCode)
	}
	return &p, nil
}
