package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"
)

const DefaultBaseURL = "https://api.razorpay.com/v1"

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client talks to the Razorpay orders and payments API with basic auth.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string

	hc *http.Client
	cb *utils.CircuitBreaker
}

func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// only provider outages count against the breaker
	cb := utils.NewCircuitBreaker("razorpay").WithFailurePredicate(func(err error) bool {
		return errors.Is(err, status.ErrUpstreamUnavailable)
	})

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		hc:        &http.Client{Timeout: timeout},
		cb:        cb,
	}
}

func (c *Client) Name() string {
	return "razorpay"
}

func (c *Client) KeyID() string {
	return c.keyID
}

type (
	orderReq struct {
		Amount   int64             `json:"amount"`
		Currency string            `json:"currency"`
		Receipt  string            `json:"receipt,omitempty"`
		Notes    map[string]string `json:"notes"`
	}

	orderReply struct {
		ID       string          `json:"id"`
		Amount   int64           `json:"amount"`
		Currency string          `json:"currency"`
		Receipt  string          `json:"receipt"`
		Status   string          `json:"status"`
		Notes    json.RawMessage `json:"notes"`
	}

	paymentReply struct {
		ID      string `json:"id"`
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Amount  int64  `json:"amount"`
	}

	errorReply struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
)

// CreateOrder creates an order. A 4xx reply means the request itself was
// rejected and maps to status.ErrValidation.
func (c *Client) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	b, err := json.Marshal(orderReq{
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Notes:    order.Notes(),
	})
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: json.Marshal: %w", err)
	}

	var reply orderReply
	if err := c.do(ctx, http.MethodPost, "/orders", b, &reply, status.ErrValidation); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	return c.toOrder(&reply)
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var reply orderReply
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &reply, status.ErrOrderNotFound); err != nil {
		return nil, fmt.Errorf("FetchOrder: %w", err)
	}

	return c.toOrder(&reply)
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var reply paymentReply
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, &reply, status.ErrPaymentNotFound); err != nil {
		return nil, fmt.Errorf("FetchPayment: %w", err)
	}

	return &models.Payment{
		ID:      reply.ID,
		OrderID: reply.OrderID,
		Status:  models.PaymentStatus(reply.Status),
		Amount:  reply.Amount,
	}, nil
}

func (c *Client) toOrder(reply *orderReply) (*models.Order, error) {
	notes, err := decodeNotes(reply.Notes)
	if err != nil {
		return nil, fmt.Errorf("order %s: notes: %w", reply.ID, err)
	}

	order := &models.Order{
		ID:       reply.ID,
		Amount:   reply.Amount,
		Currency: reply.Currency,
		Receipt:  reply.Receipt,
	}
	if err := order.ApplyNotes(notes); err != nil {
		return nil, err
	}
	return order, nil
}

// decodeNotes accepts the notes object in any of the shapes the API returns:
// an object with string or numeric values, or an empty array when unset.
func decodeNotes(raw json.RawMessage) (map[string]string, error) {
	out := make(map[string]string)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '[' || string(raw) == "null" {
		return out, nil
	}

	var notes map[string]any
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, err
	}
	for k, v := range notes {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// do runs one API call through the circuit breaker and decodes a 200 reply
// into out. Client errors (400, 404) are reported as clientErr.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, clientErr error) error {
	_, err := c.cb.Execute(ctx, func() (any, error) {
		var rbody io.Reader
		if body != nil {
			rbody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rbody)
		if err != nil {
			return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
		}
		req.SetBasicAuth(c.keyID, c.keySecret)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", status.ErrUpstreamUnavailable, method, path, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", clientErr, describe(resp.Body))
		default:
			// 401, 429 and 5xx are provider side
			return nil, fmt.Errorf("%w: resp.StatusCode: %d, resp.Body: %s", status.ErrUpstreamUnavailable, resp.StatusCode, describe(resp.Body))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: json.Decode: %v", status.ErrUpstreamUnavailable, err)
		}
		return nil, nil
	})

	if errors.Is(err, utils.ErrCircuitOpen) || errors.Is(err, utils.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", status.ErrUpstreamUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", status.ErrUpstreamUnavailable, err)
	}
	return err
}

func describe(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))

	var e errorReply
	if json.Unmarshal(b, &e) == nil && e.Error.Description != "" {
		return e.Error.Code + ": " + e.Error.Description
	}
	return string(b)
}
