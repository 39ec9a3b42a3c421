package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nikhil/sharenet/internal/logger"
)

// RoutingKey is the topic key every queued email is published under.
const RoutingKey = "mail.send"

// attemptsHeader counts failed deliveries of a republished message.
const attemptsHeader = "x-attempts"

// QueueMailer publishes messages to a topic exchange for the mail worker.
type QueueMailer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewQueueMailer(url, exchange string) (*QueueMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &QueueMailer{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *QueueMailer) Send(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *QueueMailer) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// WorkerConfig configures the queue consumer.
type WorkerConfig struct {
	RabbitURL string
	Exchange  string
	Queue     string
	Prefetch  int

	// MaxAttempts bounds deliveries per message before it is dead-lettered.
	MaxAttempts int
	// RetryDelay is the first backoff; it doubles per attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// Worker drains the mail queue into a delivering Mailer.
type Worker struct {
	cfg      WorkerConfig
	delivery Mailer
	log      *logger.Logger
	validate *validator.Validate

	conn *amqp.Connection
	ch   *amqp.Channel

	// republish puts a failed message back on the exchange.
	republish func(ctx context.Context, p amqp.Publishing) error
}

func NewWorker(cfg WorkerConfig, delivery Mailer, log *logger.Logger) *Worker {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * time.Second
		if cfg.MaxRetryDelay < cfg.RetryDelay {
			cfg.MaxRetryDelay = cfg.RetryDelay
		}
	}
	return &Worker{cfg: cfg, delivery: delivery, log: log, validate: validator.New()}
}

// Connect declares the exchange and queue and binds them.
func (w *Worker) Connect() error {
	conn, err := amqp.Dial(w.cfg.RabbitURL)
	if err != nil {
		return fmt.Errorf("rabbit dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel failed: %w", err)
	}
	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s failed: %w", step, err)
	}
	if err := ch.ExchangeDeclare(w.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	q, err := ch.QueueDeclare(w.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKey, w.cfg.Exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}
	if err := ch.Qos(w.cfg.Prefetch, 0, false); err != nil {
		return fail("set qos", err)
	}
	w.conn = conn
	w.ch = ch
	w.republish = func(ctx context.Context, p amqp.Publishing) error {
		return ch.PublishWithContext(ctx, w.cfg.Exchange, RoutingKey, false, false, p)
	}
	return nil
}

func (w *Worker) Close() {
	if w.ch != nil {
		_ = w.ch.Close()
	}
	if w.conn != nil {
		_ = w.conn.Close()
	}
}

// Run consumes until ctx is cancelled or the channel closes.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.ch.ConsumeWithContext(ctx, w.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.settle(ctx, d)
		}
	}
}

// settle delivers one message and acks, retries or dead-letters it.
func (w *Worker) settle(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
		return
	case isPoison(err):
		w.log.Error("Dropping undeliverable mail payload", "error", err)
		_ = d.Nack(false, false)
		return
	}

	attempt := attemptsOf(d.Headers) + 1
	if attempt >= w.cfg.MaxAttempts {
		w.log.Error("Mail delivery failed, giving up", "attempts", attempt, "error", err)
		_ = d.Nack(false, false)
		return
	}

	delay := backoff(w.cfg.RetryDelay, w.cfg.MaxRetryDelay, attempt)
	w.log.Warn("Mail delivery failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		_ = d.Nack(false, true)
		return
	case <-timer.C:
	}

	err = w.republish(ctx, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{attemptsHeader: int32(attempt)},
		Body:         d.Body,
	})
	if err != nil {
		w.log.Error("Failed to republish mail, requeueing", "error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func attemptsOf(headers amqp.Table) int {
	switch v := headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// backoff returns the wait before retry n, doubling from base up to ceiling.
func backoff(base, ceiling time.Duration, n int) time.Duration {
	d := base
	for i := 1; i < n && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

type poisonError struct{ err error }

func (p poisonError) Error() string { return p.err.Error() }
func (p poisonError) Unwrap() error { return p.err }

func isPoison(err error) bool {
	_, ok := err.(poisonError)
	return ok
}

// Handle decodes one queued payload and delivers it. Malformed payloads are
// reported as poison so they are dropped rather than requeued forever.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return poisonError{fmt.Errorf("decode mail: %w", err)}
	}
	if err := w.validate.Struct(msg); err != nil {
		return poisonError{fmt.Errorf("validate mail: %w", err)}
	}
	if err := w.delivery.Send(ctx, msg); err != nil {
		return err
	}
	w.log.Info("Mail delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}
