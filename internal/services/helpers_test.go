package services

import (
	"context"
	"testing"
	"time"

	"festival-tickets/internal/services/gateway/sandbox"
	"festival-tickets/internal/store/memstore"
	"festival-tickets/internal/store/redisstore"
	"festival-tickets/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test_secret"
	testEmail    = "gate@example.com"
	testPassword = "gate-pass"
)

var testPrice = decimal.NewFromInt(100)

// fixture wires the services against miniredis and the sandbox provider.
type fixture struct {
	store    *redisstore.Store
	sessions *memstore.Sessions
	gw       *sandbox.Sandbox

	codes     *CodeIssuer
	orders    *OrderService
	verifier  *Verifier
	issuer    *Issuer
	checkout  *Checkout
	guard     *SessionGuard
	validator *EntryValidator
	reporting *Reporting
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		store:    redisstore.New(rdb, ""),
		sessions: memstore.NewSessions(),
		gw:       sandbox.New("rzp_test_key", testSecret),
		codes:    NewCodeIssuer("Mona Squad Festival 2025", "MONA"),
	}

	f.orders = NewOrderService(f.gw, OrderConfig{
		EventName:  "Mona Squad Festival 2025",
		EventCode:  "MONA",
		UnitPrice:  testPrice,
		Currency:   "INR",
		MaxTickets: 10,
	})
	f.verifier = NewVerifier(f.gw, testSecret, testPrice)
	f.issuer = NewIssuer(f.store, f.codes)
	f.checkout = NewCheckout(f.verifier, f.issuer, f.store, nil)
	f.guard = NewSessionGuard(f.sessions, memstore.NewEnvOperator(testEmail, string(hash)), f.store, 12*time.Hour)
	f.validator = NewEntryValidator(f.guard, f.store, nil)
	f.reporting = NewReporting(f.store, f.store)

	return f
}

// purchase creates and captures an order and returns the checkout callback.
func (f *fixture) purchase(t *testing.T, quantity int) *models.PaymentConfirmation {
	t.Helper()
	ctx := context.Background()

	order, err := f.orders.Create(ctx, &models.OrderRequest{Name: "Asha", Phone: "9999", Quantity: quantity})
	require.NoError(t, err)

	conf, err := f.gw.Capture(ctx, order.ID)
	require.NoError(t, err)
	return conf
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	token, err := f.guard.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	return token
}

func (f *fixture) payload(t *testing.T, tk *models.Ticket) string {
	t.Helper()
	b, err := f.codes.Payload(tk)
	require.NoError(t, err)
	return string(b)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string  { return "mock" }
func (m *mockGateway) KeyID() string { return "rzp_test_key" }

func (m *mockGateway) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockGateway) FetchPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func (m *mockGateway) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) FindByPayment(ctx context.Context, paymentID string) ([]models.Ticket, error) {
	args := m.Called(ctx, paymentID)
	t, _ := args.Get(0).([]models.Ticket)
	return t, args.Error(1)
}

func (m *mockTicketStore) CreateBatch(ctx context.Context, paymentID string, tickets []models.Ticket) error {
	return m.Called(ctx, paymentID, tickets).Error(0)
}

func (m *mockTicketStore) FindByToken(ctx context.Context, qrToken string) (*models.Ticket, error) {
	args := m.Called(ctx, qrToken)
	t, _ := args.Get(0).(*models.Ticket)
	return t, args.Error(1)
}

func (m *mockTicketStore) MarkScanned(ctx context.Context, qrToken string, at time.Time) (bool, error) {
	args := m.Called(ctx, qrToken, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketStore) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.Stats)
	return s, args.Error(1)
}
