package notify

import (
	"context"
	"log/slog"
)

// LogSink writes notifications to the service log. Used when no external
// channel is configured so orders are still visible to the operator.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Name() string { return "log" }

func (s LogSink) Send(_ context.Context, msg Message) error {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	l.Info("owner_notification",
		"id", msg.ID.String(),
		"title", msg.Title,
		"content", msg.Content,
		"order_id", msg.OrderID,
		"total_price", msg.TotalPrice,
	)
	return nil
}
