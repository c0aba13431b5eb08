package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// EventTransactionCreated is the message type and routing key suffix for new transactions.
const EventTransactionCreated = "transaction.created"

// TransactionCreatedMessage carries a full copy of a newly recorded
// transaction, so consumers never need to read the ledger's store.
type TransactionCreatedMessage struct {
	EventID     string           `json:"event_id"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewTransactionCreatedMessage stamps tx with a fresh event ID and the current time.
func NewTransactionCreatedMessage(tx core.Transaction) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		EventID:     uuid.NewString(),
		Transaction: tx,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes a message body.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
