package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"festival-tickets/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct {
	st  *models.Stats
	err error
}

func (s stubStats) Stats(ctx context.Context) (*models.Stats, error) {
	return s.st, s.err
}

type recordingNotifier struct {
	issued  int
	scanned int
}

func (r *recordingNotifier) TicketsIssued(ctx context.Context, tickets []models.Ticket) error {
	r.issued += len(tickets)
	return nil
}

func (r *recordingNotifier) TicketScanned(ctx context.Context, result *models.ScanResult) error {
	r.scanned++
	return nil
}

// gauge returns the value of a registered metric with the given label.
func gauge(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label == "" {
				if m.GetGauge() != nil {
					return m.GetGauge().GetValue()
				}
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					if m.GetGauge() != nil {
						return m.GetGauge().GetValue()
					}
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s=%q} not found", name, label, value)
	return 0
}

func TestMonitor_Collect(t *testing.T) {
	m := NewMonitor(stubStats{st: &models.Stats{
		TotalTickets:   7,
		TicketsScanned: 3,
		PendingEntries: 4,
		TotalRevenue:   decimal.RequireFromString("700.50"),
	}}, time.Minute)

	m.collect(context.Background())

	assert.Equal(t, 7.0, gauge(t, "festival_tickets", "state", "sold"))
	assert.Equal(t, 3.0, gauge(t, "festival_tickets", "state", "scanned"))
	assert.Equal(t, 4.0, gauge(t, "festival_tickets", "state", "pending"))
	assert.Equal(t, 700.5, gauge(t, "festival_revenue", "", ""))
}

func TestMonitor_CollectErrorKeepsGauges(t *testing.T) {
	NewMonitor(stubStats{st: &models.Stats{TotalTickets: 2}}, 0).collect(context.Background())
	NewMonitor(stubStats{err: errors.New("down")}, 0).collect(context.Background())

	assert.Equal(t, 2.0, gauge(t, "festival_tickets", "state", "sold"))
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewMonitor(stubStats{st: &models.Stats{}}, time.Millisecond).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCounting(t *testing.T) {
	next := &recordingNotifier{}
	c := NewCounting(next)
	before := testutil.ToFloat64(scans.WithLabelValues(string(models.ScanApproved)))

	require.NoError(t, c.TicketsIssued(context.Background(), make([]models.Ticket, 3)))
	require.NoError(t, c.TicketScanned(context.Background(), &models.ScanResult{Outcome: models.ScanApproved}))

	assert.Equal(t, 3, next.issued)
	assert.Equal(t, 1, next.scanned)
	assert.Equal(t, before+1, testutil.ToFloat64(scans.WithLabelValues(string(models.ScanApproved))))
	assert.NoError(t, NewCounting(nil).TicketScanned(context.Background(), &models.ScanResult{Outcome: models.ScanDuplicate}))
}
