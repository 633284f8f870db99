package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name string
	err  error

	mu   sync.Mutex
	msgs []Message
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSink) received() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDispatcher_DeliversToAllSinksDespiteFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	broken := &recordingSink{name: "broken", err: errors.New("broker down")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(4, time.Second, log, broken, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	require.True(t, d.Enqueue(Message{Title: "New Order Received", OrderID: 7}))

	require.Eventually(t, func() bool { return len(ok.received()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Len(t, broken.received(), 1)
	got := ok.received()[0]
	assert.Equal(t, uint(7), got.OrderID)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Contains(t, buf.String(), `"msg":"notify_failed"`)
	assert.Contains(t, buf.String(), `"sink":"broken"`)
}

type panickingSink struct{}

func (panickingSink) Name() string { return "panicky" }

func (panickingSink) Send(context.Context, Message) error { panic("nil client") }

func TestDispatcher_SinkPanicIsContained(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(4, time.Second, log, panickingSink{}, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	require.True(t, d.Enqueue(Message{OrderID: 1}))
	require.True(t, d.Enqueue(Message{OrderID: 2}))

	require.Eventually(t, func() bool { return len(ok.received()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, buf.String(), `"msg":"notify_failed"`)
	assert.Contains(t, buf.String(), `"sink":"panicky"`)
	assert.Contains(t, buf.String(), "sink panicked: nil client")
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(1, time.Second, quietLogger())

	assert.True(t, d.Enqueue(Message{OrderID: 1}))
	assert.False(t, d.Enqueue(Message{OrderID: 2}))
}

func TestDispatcher_RunDrainsOnCancel(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(8, time.Second, quietLogger(), sink)

	for i := 1; i <= 3; i++ {
		require.True(t, d.Enqueue(Message{OrderID: uint(i)}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	got := sink.received()
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, uint(i+1), m.OrderID)
	}
}

func TestLogSink_Send(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := LogSink{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, s.Send(context.Background(), Message{
		ID:      uuid.New(),
		Title:   "New Order Received",
		Content: "New order from Jane Doe",
		OrderID: 3,
	}))
	assert.Equal(t, "log", s.Name())
	assert.Contains(t, buf.String(), `"msg":"owner_notification"`)
	assert.Contains(t, buf.String(), `"order_id":3`)
}
