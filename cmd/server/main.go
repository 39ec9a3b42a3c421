package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/nikhil/sharenet/internal/cache"
	"github.com/nikhil/sharenet/internal/config"
	"github.com/nikhil/sharenet/internal/database"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/mailer"
	"github.com/nikhil/sharenet/internal/middleware"
	"github.com/nikhil/sharenet/internal/models"
	"github.com/nikhil/sharenet/internal/routes"
	services "github.com/nikhil/sharenet/internal/service/auth"
	inviteService "github.com/nikhil/sharenet/internal/service/invite"
	messageService "github.com/nikhil/sharenet/internal/service/messages"
	notificationService "github.com/nikhil/sharenet/internal/service/notifications"
	teamService "github.com/nikhil/sharenet/internal/service/team"
	profileService "github.com/nikhil/sharenet/internal/service/users"
	"github.com/nikhil/sharenet/internal/store"
	"github.com/nikhil/sharenet/internal/store/mongostore"
	"github.com/nikhil/sharenet/internal/store/sqlstore"
	"github.com/nikhil/sharenet/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("sharenet").Fatal("Failed to load config", "error", err)
	}
	log := logger.New(logger.Options{Service: cfg.ServiceName, Environment: cfg.Environment})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	teamCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	mail, closeMail, err := openMailer(cfg, log)
	if err != nil {
		log.Fatal("Failed to set up mailer", "driver", cfg.MailDriver, "error", err)
	}
	defer closeMail()

	hub := models.NewHub()
	go hub.Run(ctx)

	invites := inviteService.NewInviteService(st, teamCache, mail, hub, log)
	router := routes.RegisterAllRoutes(routes.Dependencies{
		Store:          st,
		Hub:            hub,
		Auth:           services.NewAuthService(st, utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), log),
		Profiles:       profileService.NewProfileService(st, mail, log),
		Teams:          teamService.NewTeamService(st, teamCache, hub, log),
		Invites:        invites,
		Notifications:  notificationService.NewNotificationService(st, hub, log),
		Messages:       messageService.NewMessageService(st, hub, log),
		Log:            log,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRPM),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
		handlers.AllowCredentials(),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           cors(middleware.RequestLogger(log)(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server is running", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "mail", cfg.MailDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	invites.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		st, err := mongostore.Open(ctx, mongostore.Options{
			URI:          cfg.MongoURI,
			Database:     cfg.MongoDatabase,
			Transactions: cfg.MongoTransactions,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlstore.New(db), nil
	default:
		db, err := database.OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sqlstore.New(db), nil
	}
}

// openCache uses Redis when REDIS_ADDR is set and falls back to no caching
// when it is unset or unreachable.
func openCache(ctx context.Context, cfg config.Config, log *logger.Logger) (cache.TeamCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Nop{}, func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn("Redis unavailable, team cache disabled", "addr", cfg.RedisAddr, "error", err)
		return cache.Nop{}, func() {}
	}
	return cache.NewRedisTeamCache(client, cfg.TeamCacheTTL), func() { _ = client.Close() }
}

func openMailer(cfg config.Config, log *logger.Logger) (mailer.Mailer, func(), error) {
	switch cfg.MailDriver {
	case "smtp":
		return mailer.NewSMTPMailer(smtpConfig(cfg)), func() {}, nil
	case "amqp":
		q, err := mailer.NewQueueMailer(cfg.RabbitURL, cfg.MailExchange)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	default:
		return mailer.LogMailer{Log: log.Named("mailer")}, func() {}, nil
	}
}

func smtpConfig(cfg config.Config) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
