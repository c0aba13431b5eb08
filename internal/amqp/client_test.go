package amqp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ledger/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := exponentialBackoff(tt.attempt); got != tt.want {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"amqp closed", amqp091.ErrClosed, true},
		{"wrapped closed", errors.Join(errors.New("publish"), amqp091.ErrClosed), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"other", errors.New("access refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCircuitBreaker(t *testing.T) {
	c := &Client{}

	if c.isCircuitOpen() {
		t.Fatal("new client should start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("circuit opened before %d failures", maxFailures)
	}

	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("circuit should be open after max failures")
	}

	// Past the open timeout the breaker lets one attempt through.
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if c.isCircuitOpen() {
		t.Fatal("circuit should be half-open after timeout")
	}
	if c.state != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", c.state)
	}

	// A failure while half-open reopens immediately.
	c.recordFailure()
	if c.state != StateOpen {
		t.Fatalf("state = %d, want open", c.state)
	}

	c.recordSuccess()
	if c.state != StateClosed || c.failureCount != 0 {
		t.Fatalf("success should reset breaker, state=%d failures=%d", c.state, c.failureCount)
	}
}

func TestPublishWithCircuitOpen(t *testing.T) {
	c := &Client{state: StateOpen, lastFailure: time.Now()}

	err := c.PublishTransactionCreated(context.Background(), core.Transaction{ID: 1})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestPublishCanceledContext(t *testing.T) {
	c := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.PublishTransactionCreated(ctx, core.Transaction{ID: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTransactionCreatedMessageJSON(t *testing.T) {
	tx := core.Transaction{
		ID:       7,
		Title:    "Groceries",
		Amount:   42.5,
		Type:     core.Expense,
		Date:     "2024-03-09",
		Category: "Food",
		Notes:    "market",
	}

	msg := NewTransactionCreatedMessage(tx)
	if msg.EventID == "" {
		t.Fatal("event id should be set")
	}
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, key := range []string{`"event_id"`, `"transaction"`, `"timestamp"`, `"title":"Groceries"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("message JSON missing %s: %s", key, data)
		}
	}

	decoded, err := TransactionCreatedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.EventID != msg.EventID || decoded.Transaction != tx {
		t.Fatalf("decoded = %+v, want %+v", decoded, msg)
	}
}

func TestTransactionCreatedMessageInvalidJSON(t *testing.T) {
	if _, err := TransactionCreatedMessageFromJSON([]byte(`{"event_id":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
