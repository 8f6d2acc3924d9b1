package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger operations carried by LedgerChangedMessage.
const (
	LedgerCreated = "created"
	LedgerDeleted = "deleted"
)

// LedgerChangedMessage announces that a user's transactions changed so every
// process holding cached analytics for that user can drop them.
type LedgerChangedMessage struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Operation     string    `json:"operation"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh event id.
func NewLedgerChangedMessage(userID, transactionID, operation string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		EventID:       uuid.NewString(),
		UserID:        userID,
		TransactionID: transactionID,
		Operation:     operation,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetAlertMessage is published when a budget crosses its warning or
// exceeded threshold. Delivery to the user is left to downstream consumers.
type BudgetAlertMessage struct {
	EventID     string          `json:"event_id"`
	UserID      string          `json:"user_id"`
	BudgetID    string          `json:"budget_id"`
	CategoryID  string          `json:"category_id,omitempty"`
	Status      string          `json:"status"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Spent       decimal.Decimal `json:"spent"`
	Limit       decimal.Decimal `json:"limit"`
	Percentage  float64         `json:"percentage"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
