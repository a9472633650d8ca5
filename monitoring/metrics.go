package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"festival-tickets/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "festival_tickets_issued_total",
			Help: "Tickets issued since start",
		},
	)

	scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "festival_ticket_scans_total",
			Help: "Gate scans by outcome",
		},
		[]string{"outcome"},
	)

	checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "festival_checkouts_total",
			Help: "Checkout confirmations by result",
		},
		[]string{"result"},
	)

	providerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "festival_provider_request_duration_seconds",
			Help:    "Payment provider request latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"operation"},
	)

	ticketTotals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "festival_tickets",
			Help: "Ticket counts from storage",
		},
		[]string{"state"},
	)

	revenue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "festival_revenue",
			Help: "Total revenue in major currency units",
		},
	)
)

type StatsSource interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

type Monitor struct {
	stats    StatsSource
	interval time.Duration
}

func NewMonitor(stats StatsSource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{stats: stats, interval: interval}
}

// Run refreshes the storage gauges until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	st, err := m.stats.Stats(ctx)
	if err != nil {
		slog.Warn("metrics: stats collection failed", "error", err)
		return
	}
	ticketTotals.WithLabelValues("sold").Set(float64(st.TotalTickets))
	ticketTotals.WithLabelValues("scanned").Set(float64(st.TicketsScanned))
	ticketTotals.WithLabelValues("pending").Set(float64(st.PendingEntries))
	revenue.Set(st.TotalRevenue.InexactFloat64())
}

func TrackCheckout(result string) {
	checkouts.WithLabelValues(result).Inc()
}

func TrackProvider(operation string, started time.Time) {
	providerLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

type notifier interface {
	TicketsIssued(ctx context.Context, tickets []models.Ticket) error
	TicketScanned(ctx context.Context, result *models.ScanResult) error
}

// Counting wraps a notifier and counts the events passing through it.
type Counting struct {
	next notifier
}

func NewCounting(next notifier) *Counting {
	return &Counting{next: next}
}

func (c *Counting) TicketsIssued(ctx context.Context, tickets []models.Ticket) error {
	ticketsIssued.Add(float64(len(tickets)))
	if c.next == nil {
		return nil
	}
	return c.next.TicketsIssued(ctx, tickets)
}

func (c *Counting) TicketScanned(ctx context.Context, result *models.ScanResult) error {
	scans.WithLabelValues(string(result.Outcome)).Inc()
	if c.next == nil {
		return nil
	}
	return c.next.TicketScanned(ctx, result)
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
