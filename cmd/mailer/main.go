package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhil/sharenet/internal/config"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/mailer"
)

// The mail worker drains invitation emails published by the API when
// MAIL_DRIVER=amqp and delivers them over SMTP, or to the log when no SMTP
// host is configured.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("sharenet-mailer").Fatal("Failed to load config", "error", err)
	}
	log := logger.New(logger.Options{Service: cfg.ServiceName + "-mailer", Environment: cfg.Environment})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var delivery mailer.Mailer = mailer.LogMailer{Log: log.Named("delivery")}
	if cfg.SMTPHost != "" {
		delivery = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}

	worker := mailer.NewWorker(mailer.WorkerConfig{
		RabbitURL: cfg.RabbitURL,
		Exchange:  cfg.MailExchange,
		Queue:     cfg.MailQueue,

		MaxAttempts:   cfg.MailMaxAttempts,
		RetryDelay:    cfg.MailRetryDelay,
		MaxRetryDelay: cfg.MailMaxRetryDelay,
	}, delivery, log.Named("mail-worker"))
	if err := worker.Connect(); err != nil {
		log.Fatal("Failed to connect to RabbitMQ", "error", err)
	}
	defer worker.Close()

	log.Info("Mail worker started", "queue", cfg.MailQueue, "exchange", cfg.MailExchange)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Mail worker stopped", "error", err)
		return
	}
	log.Info("Mail worker stopped")
}
