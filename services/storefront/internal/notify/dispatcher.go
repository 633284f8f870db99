package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OrderID    uint      `json:"orderId"`
	TotalPrice int64     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Sink delivers a message to one channel the owner watches.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher decouples owner notifications from the request path. Enqueue
// never blocks; a single worker started by Run fans each message out to all
// sinks.
type Dispatcher struct {
	queue       chan Message
	sinks       []Sink
	sendTimeout time.Duration
	log         *slog.Logger
}

func NewDispatcher(size int, sendTimeout time.Duration, log *slog.Logger, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		queue:       make(chan Message, size),
		sinks:       sinks,
		sendTimeout: sendTimeout,
		log:         log.With("component", "notify.dispatcher"),
	}
}

// Enqueue schedules msg for delivery. It reports false when the queue is
// full and the message was dropped.
func (d *Dispatcher) Enqueue(msg Message) bool {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("notify_dropped", "reason", "queue full", "order_id", msg.OrderID)
		return false
	}
}

// Run delivers queued messages until ctx is cancelled, then drains whatever
// is still buffered before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	for _, s := range d.sinks {
		if err := d.send(ctx, s, msg); err != nil {
			d.log.Warn("notify_failed", "sink", s.Name(), "order_id", msg.OrderID, "error", err)
			continue
		}
		d.log.Debug("notify_success", "sink", s.Name(), "order_id", msg.OrderID)
	}
}

// send bounds one sink call by sendTimeout and turns a panic into an error.
func (d *Dispatcher) send(ctx context.Context, s Sink, msg Message) (err error) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Send(sendCtx, msg)
}
