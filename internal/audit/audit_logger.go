// Package audit writes one JSON line per ledger mutation, failure and
// reconciliation case.
package audit

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/laundrypay/backend/internal/models"
)

type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	StudentID     string    `json:"student_id,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewLogger() *Logger {
	return &Logger{out: log.Default(), now: time.Now}
}

// NewLoggerTo writes audit lines to out, mostly for tests.
func NewLoggerTo(out *log.Logger, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{out: out, now: now}
}

// LogTransaction records a committed ledger row.
func (a *Logger) LogTransaction(txn *models.Transaction) {
	details := map[string]any{
		"kind":             txn.Kind,
		"balance_before":   txn.BalanceBefore,
		"balance_after":    txn.BalanceAfter,
		"customer_consent": txn.CustomerConsent,
	}
	if txn.OrderID != nil {
		details["order_id"] = *txn.OrderID
	}
	if txn.RoundingDifference != nil {
		details["rounding_difference"] = *txn.RoundingDifference
	}
	a.log(Event{
		EventType:     "WADIAH_" + strings.ToUpper(string(txn.Kind)),
		TransactionID: txn.ID,
		StudentID:     txn.StudentID,
		ActorID:       txn.ActorID,
		Amount:        txn.Amount,
		Status:        "SUCCESS",
		Details:       details,
	})
}

// LogRejected records a request the processor refused without touching the ledger.
func (a *Logger) LogRejected(studentID, actorID string, kind models.TransactionKind, amount int64, err error) {
	a.log(Event{
		EventType: "WADIAH_REJECTED",
		StudentID: studentID,
		ActorID:   actorID,
		Amount:    amount,
		Status:    "REJECTED",
		Details:   map[string]string{"kind": string(kind), "error": err.Error()},
	})
}

func (a *Logger) LogError(transactionID, studentID string, err error) {
	a.log(Event{
		EventType:     "ERROR",
		TransactionID: transactionID,
		StudentID:     studentID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

// LogOperation records a non-ledger step such as a checkout or gateway event.
func (a *Logger) LogOperation(referenceID, studentID, operation string, amount int64, details any) {
	a.log(Event{
		EventType:     operation,
		TransactionID: referenceID,
		StudentID:     studentID,
		Amount:        amount,
		Status:        "SUCCESS",
		Details:       details,
	})
}

// LogReconciliation records a checkout whose ledger writes committed but whose
// bills could not be marked paid.
func (a *Logger) LogReconciliation(checkoutID, studentID string, amount int64, details any) {
	a.log(Event{
		EventType:     "RECONCILIATION_REQUIRED",
		TransactionID: checkoutID,
		StudentID:     studentID,
		Amount:        amount,
		Status:        "PENDING",
		Details:       details,
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}
