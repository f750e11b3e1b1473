package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/handler"
	"github.com/xenking/restaurant-mis/internal/notify"
	"github.com/xenking/restaurant-mis/internal/printer"
	"github.com/xenking/restaurant-mis/internal/receipt"
	"github.com/xenking/restaurant-mis/pkg/health"
	"github.com/xenking/restaurant-mis/pkg/httpmiddleware"
)

const serviceName = "restaurant-mis"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	backend, err := OpenStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	// Order events.
	var notifier order.Notifier = order.NopNotifier{}
	if cfg.AMQP.URL != "" {
		pub, closeAMQP, err := notify.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return errors.Wrap(err, "connect amqp")
		}
		defer func() {
			if err := closeAMQP(); err != nil {
				lg.Warn("Close AMQP connection", zap.Error(err))
			}
		}()
		notifier = pub
		lg.Info("Publishing order events", zap.String("exchange", cfg.AMQP.Exchange))
	}

	// Health check service.
	healthSvc := health.New()
	if p, ok := backend.Port.(health.Pinger); ok {
		healthSvc.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(cfg.Storage.Driver, p))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories and services.
	orderRepo := order.NewRepository(backend.Port, lg.Named("orders"))
	feedbackRepo := feedback.NewRepository(backend.Port, lg.Named("feedback"))
	orderService, err := order.NewService(orderRepo, notifier, m.MeterProvider().Meter(serviceName))
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	var prn handler.Printer
	if cfg.Printer.Addr != "" {
		prn = printer.New(
			printer.TCPScanner{Addr: cfg.Printer.Addr, DialTimeout: cfg.Printer.DialTimeout},
			printer.Options{
				ChunkSize:       cfg.Printer.ChunkSize,
				ChunkDelay:      cfg.Printer.ChunkDelay,
				DisconnectDelay: cfg.Printer.DisconnectDelay,
			},
		)
	}

	sessions := cart.NewSessions(cfg.Cart.IdleTTL)
	go sessions.SweepEvery(ctx, time.Minute)

	// HTTP handlers.
	h := handler.New(
		handler.Config{
			Receipt:  receiptOptions(lg, cfg.Receipt),
			Location: loc,
		},
		sessions,
		orderRepo,
		orderService,
		feedbackRepo,
		prn,
	)
	security := handler.NewSecurity(backend.APIKeys, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, security)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:  cfg.CORS.Origins,
				AllowHeaders:  []string{"Content-Type", handler.HeaderAPIKey, httpmiddleware.HeaderRequestID},
				ExposeHeaders: []string{"Content-Disposition", httpmiddleware.HeaderRequestID},
				MaxAge:        86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// receiptOptions builds receipt options, reading the logo file if one is
// configured. A missing logo only costs the printed bitmap.
func receiptOptions(lg *zap.Logger, cfg ReceiptConfig) receipt.Options {
	opts := receipt.Options{
		StoreName:  cfg.StoreName,
		StorePhone: cfg.StorePhone,
		Origin:     cfg.Origin,
		Footer:     cfg.Footer,
		QREndpoint: cfg.QREndpoint,
		PrintQR:    cfg.PrintQR,
	}
	if cfg.LogoPath != "" {
		logo, err := os.ReadFile(cfg.LogoPath)
		if err != nil {
			lg.Warn("Receipt logo not loaded", zap.String("path", cfg.LogoPath), zap.Error(err))
		} else {
			opts.Logo = logo
		}
	}
	return opts
}
