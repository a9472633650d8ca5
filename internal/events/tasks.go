package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"festival-tickets/models"

	"github.com/hibiken/asynq"
)

const (
	TypeKeepalive = "keepalive:ping"

	queueDefault = "default"
	queueLow     = "low"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier hands committed events to the asynq queue so request handlers
// never wait on PubNub or Kafka.
type Notifier struct {
	client enqueuer
	now    func() time.Time
}

func NewNotifier(client *asynq.Client) *Notifier {
	return &Notifier{client: client, now: time.Now}
}

func (n *Notifier) TicketsIssued(ctx context.Context, tickets []models.Ticket) error {
	return n.enqueue(ctx, Issued(tickets, n.now()))
}

func (n *Notifier) TicketScanned(ctx context.Context, res *models.ScanResult) error {
	return n.enqueue(ctx, Scanned(res, n.now()))
}

func (n *Notifier) enqueue(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	_, err = n.client.EnqueueContext(ctx, asynq.NewTask(e.Type, payload),
		asynq.Queue(queueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", e.Type, err)
	}
	return nil
}

// Worker consumes queued events and keepalive pings.
type Worker struct {
	publisher    Publisher
	keepaliveURL string
	http         *http.Client
}

func NewWorker(publisher Publisher, keepaliveURL string) *Worker {
	return &Worker{
		publisher:    publisher,
		keepaliveURL: strings.TrimRight(keepaliveURL, "/"),
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTicketsIssued, w.HandleEvent)
	mux.HandleFunc(TypeTicketScanned, w.HandleEvent)
	mux.HandleFunc(TypeKeepalive, w.HandleKeepalive)
	return mux
}

func (w *Worker) HandleEvent(ctx context.Context, t *asynq.Task) error {
	var e Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if e.Type != t.Type() {
		return fmt.Errorf("task %s carries %q event: %w", t.Type(), e.Type, asynq.SkipRetry)
	}

	if err := w.publisher.Publish(ctx, &e); err != nil {
		slog.Warn("event publish failed", "event", e.Type, "error", err)
		return err
	}
	return nil
}

// HandleKeepalive pings the public health endpoint so hosted instances are
// not idled out.
func (w *Worker) HandleKeepalive(ctx context.Context, t *asynq.Task) error {
	if w.keepaliveURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.keepaliveURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("keepalive request: %v: %w", err, asynq.SkipRetry)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		slog.Warn("keepalive ping failed", "url", w.keepaliveURL, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keepalive: %s returned %d", w.keepaliveURL, resp.StatusCode)
	}
	slog.Debug("keepalive ok", "url", w.keepaliveURL)
	return nil
}

// NewServer returns the asynq server used by the worker.
func NewServer(redisOpt asynq.RedisConnOpt) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queueDefault: 6,
			queueLow:     1,
		},
		Logger: slogAdapter{},
	})
}

// NewKeepaliveScheduler registers the periodic keepalive ping.
func NewKeepaliveScheduler(redisOpt asynq.RedisConnOpt, spec string) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: slogAdapter{}})
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeKeepalive, nil), asynq.Queue(queueLow), asynq.MaxRetry(0)); err != nil {
		return nil, fmt.Errorf("scheduler.Register: %w", err)
	}
	return scheduler, nil
}

// slogAdapter routes asynq's logging to slog.
type slogAdapter struct{}

func (slogAdapter) Debug(args ...any) { slog.Debug(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Info(args ...any)  { slog.Info(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Warn(args ...any)  { slog.Warn(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Error(args ...any) { slog.Error(fmt.Sprint(args...), "component", "asynq") }
func (slogAdapter) Fatal(args ...any) {
	slog.Error(fmt.Sprint(args...), "component", "asynq")
	panic(fmt.Sprint(args...))
}
