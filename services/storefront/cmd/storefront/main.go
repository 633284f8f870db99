package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/liontv_shop/pkg/authclient"
	pkgconfig "github.com/Skotchmaster/liontv_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/liontv_shop/pkg/db"
	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	middleware "github.com/Skotchmaster/liontv_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/liontv_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/liontv_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/liontv_shop/pkg/middleware/ratelimit"

	storecfg "github.com/Skotchmaster/liontv_shop/services/storefront/internal/config"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/httpserver"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/notify"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/repo"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv()
	cfg := storecfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	gateway := repo.NewGateway(cfg.DatabaseURL, func(ctx context.Context, dsn string) (*gorm.DB, error) {
		return pkgdb.Open(ctx, dsn, pkgdb.Options{Driver: cfg.DatabaseDriver})
	}, repo.Options{
		OwnerOpenID: cfg.OwnerOpenID,
		AutoMigrate: cfg.AutoMigrate,
	})

	sinks, closers := buildSinks(cfg, logger)
	dispatcher := notify.NewDispatcher(cfg.NotifyQueueSize, 5*time.Second, logger, sinks...)

	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis_unavailable", "reason", "checkout rate limit disabled", "error", err)
		} else {
			closers = append(closers, rdb)
			limiter = &ratelimit.Limiter{
				Store:  rdb,
				Prefix: "ratelimit:checkout",
				Limit:  cfg.CheckoutRateLimit,
				Window: cfg.CheckoutRateWindow,
			}
		}
	}

	var csrfMW echo.MiddlewareFunc
	if cfg.CSRFEnabled {
		csrfMW = csrf.Middleware(csrf.DefaultConfig())
	}

	validate := service.NewValidator()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.HTTPErrorHandler
	e.Validator = &httpserver.Validator{V: validate}
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(loggingmw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowCredentials: true}))
	e.Use(echomw.Secure())

	httpserver.Register(e, &httpserver.Deps{
		CheckoutHandler: &httpserver.CheckoutHTTP{
			Svc: service.NewCheckoutService(gateway, dispatcher, validate),
		},
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:     gateway,
				OAuth:     authclient.NewClient(cfg.OAuthServerURL, cfg.AppID),
				JWTSecret: cfg.JWTSecret,
				AppID:     cfg.AppID,
			},
			CookieName: cfg.SessionCookieName,
		},
		CatalogHandler:  &httpserver.CatalogHTTP{},
		Session:         middleware.NewSessionMiddleware(cfg.JWTSecret, cfg.SessionCookieName, gateway.RoleOf),
		CheckoutLimiter: limiter,
		CSRF:            csrfMW,
		Ready:           gateway.Available,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	// The dispatcher outlives the server so orders accepted during shutdown
	// still notify the owner.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopDispatch()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("storefront_error", "error", err)
	}

	for _, c := range closers {
		_ = c.Close()
	}
	if err := gateway.Close(); err != nil {
		logger.Warn("database_close_error", "error", err)
	}
	logger.Info("storefront stopped")
}

// buildSinks wires every configured owner channel. A sink that cannot be
// set up is skipped with a warning; with none left, notifications go to the log.
func buildSinks(cfg storecfg.ServiceConfig, logger *slog.Logger) ([]notify.Sink, []io.Closer) {
	var (
		sinks   []notify.Sink
		closers []io.Closer
	)

	if len(cfg.KafkaBrokers) > 0 {
		k := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		sinks = append(sinks, k)
		closers = append(closers, k)
	}

	if cfg.RabbitMQURL != "" {
		a, err := notify.NewAMQPSink(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			logger.Warn("notify_sink_unavailable", "sink", "amqp", "error", err)
		} else {
			sinks = append(sinks, a)
			closers = append(closers, a)
		}
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramOwnerChatID != 0 {
		tg, err := notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramOwnerChatID)
		if err != nil {
			logger.Warn("notify_sink_unavailable", "sink", "telegram", "error", err)
		} else {
			sinks = append(sinks, tg)
		}
	}

	if len(sinks) == 0 {
		sinks = append(sinks, notify.LogSink{Log: logger})
	}
	return sinks, closers
}
