package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festival-tickets/config"
	"festival-tickets/internal/events"
	"festival-tickets/internal/handlers"
	"festival-tickets/internal/services"
	"festival-tickets/internal/services/gateway"
	"festival-tickets/internal/services/gateway/sandbox"
	"festival-tickets/internal/store/memstore"
	"festival-tickets/internal/store/pbstore"
	"festival-tickets/internal/store/redisstore"
	"festival-tickets/monitoring"
	"festival-tickets/security"
	"festival-tickets/utils"

	_ "festival-tickets/migrations"

	"github.com/hibiken/asynq"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment provider
	gw, err := gateway.New(cfg)
	if err != nil {
		return err
	}
	sb, _ := gw.(*sandbox.Sandbox)
	gw = gateway.Timed(gw, monitoring.TrackProvider)

	// Storage
	redisStore := redisstore.New(redisClient, "")
	pbStore := pbstore.New(app)

	var (
		tickets services.TicketStore   = pbStore
		audit   services.LoginAuditLog = pbStore
	)
	if cfg.StoreBackend == config.BackendRedis {
		tickets, audit = redisStore, redisStore
	}

	var sessions services.SessionStore = redisStore
	if cfg.SessionBackend == config.BackendMemory {
		mem := memstore.NewSessions()
		sessions = mem
		go sweepSessions(ctx, mem)
	}

	operators := memstore.Directories{pbStore}
	if env := memstore.NewEnvOperator(cfg.AdminEmail, cfg.AdminPasswordHash); env.Configured() {
		operators = memstore.Directories{env, pbStore}
	}

	// Event delivery
	redisOpt := asynqRedisOpt(cfg)
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()
	notifier := monitoring.NewCounting(events.NewNotifier(queue))

	// Initialize services
	codes := services.NewCodeIssuer(cfg.EventName, cfg.EventCode)
	orders := services.NewOrderService(gw, services.OrderConfig{
		EventName:  cfg.EventName,
		EventCode:  cfg.EventCode,
		UnitPrice:  cfg.TicketPrice,
		Currency:   cfg.Currency,
		MaxTickets: cfg.MaxTickets,
	})
	verifier := services.NewVerifier(gw, cfg.RazorpaySecret, cfg.TicketPrice)
	checkout := services.NewCheckout(verifier, services.NewIssuer(tickets, codes), tickets, notifier)
	guard := services.NewSessionGuard(sessions, operators, audit, cfg.SessionTTL)
	validator := services.NewEntryValidator(guard, tickets, notifier)
	reporting := services.NewReporting(tickets, audit)

	// Initialize handlers
	routes := &handlers.Routes{
		Payments:   handlers.NewPaymentHandler(orders, checkout, codes, sb),
		Tickets:    handlers.NewTicketHandler(reporting, codes, cfg.EventName, cfg.Currency),
		Admin:      handlers.NewAdminHandler(guard, validator, reporting, cfg.Currency),
		Health:     handlers.NewHealthHandler(redisClient, reporting),
		LoginLimit: security.NewRateLimiter(redisClient, "ratelimit:login:", cfg.LoginRateLimit, time.Minute),
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.RootCmd.AddCommand(
		newOperatorCmd(app),
		newWorkerCmd(cfg, redisOpt),
	)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		routes.Register(e.Router)

		if cfg.EnableMetrics {
			go monitoring.NewMonitor(reporting, 30*time.Second).Run(ctx)
			go func() {
				if err := monitoring.Serve(ctx, ":"+cfg.MetricsPort); err != nil {
					slog.Error("monitoring.Serve()", "port", cfg.MetricsPort, "error", err)
				}
			}()
		}

		if cfg.EmbeddedWorker {
			go func() {
				if err := runWorker(ctx, cfg, redisOpt); err != nil {
					slog.Error("runWorker()", "error", err)
				}
			}()
		}

		log.Printf("Server routes registered (store=%s, sessions=%s, provider=%s)", cfg.StoreBackend, cfg.SessionBackend, gw.Name())
		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func sweepSessions(ctx context.Context, sessions *memstore.Sessions) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
