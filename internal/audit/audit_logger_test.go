package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/laundrypay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewLoggerTo(log.New(&buf, "", 0), func() time.Time { return fixed }), &buf
}

func decode(t *testing.T, line string) Event {
	t.Helper()
	line = strings.TrimSpace(line)
	require.True(t, strings.HasPrefix(line, "AUDIT: "), line)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "AUDIT: ")), &event))
	return event
}

func TestLogTransaction(t *testing.T) {
	logger, buf := newTestLogger()
	order := "order-1"
	diff := int64(300)

	logger.LogTransaction(&models.Transaction{
		ID: "tx-1", StudentID: "student-1", Kind: models.KindSedekah, Amount: 300,
		OrderID: &order, RoundingDifference: &diff, CustomerConsent: true, ActorID: "cashier-1",
	})

	event := decode(t, buf.String())
	assert.Equal(t, "WADIAH_SEDEKAH", event.EventType)
	assert.Equal(t, "tx-1", event.TransactionID)
	assert.Equal(t, int64(300), event.Amount)
	assert.Equal(t, "SUCCESS", event.Status)

	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order-1", details["order_id"])
	assert.Equal(t, float64(300), details["rounding_difference"])
}

func TestLogRejectedAndError(t *testing.T) {
	logger, buf := newTestLogger()

	logger.LogRejected("student-1", "cashier-1", models.KindPayment, 5000, errors.New("insufficient balance"))
	logger.LogError("tx-2", "student-1", errors.New("connection reset"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	rejected := decode(t, lines[0])
	assert.Equal(t, "WADIAH_REJECTED", rejected.EventType)
	assert.Equal(t, "REJECTED", rejected.Status)

	failed := decode(t, lines[1])
	assert.Equal(t, "ERROR", failed.EventType)
	assert.Equal(t, "FAILED", failed.Status)
	assert.True(t, failed.Timestamp.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestLogReconciliation(t *testing.T) {
	logger, buf := newTestLogger()
	logger.LogReconciliation("co-1", "student-1", 2300, map[string]any{"bill_ids": []string{"b1"}})

	event := decode(t, buf.String())
	assert.Equal(t, "RECONCILIATION_REQUIRED", event.EventType)
	assert.Equal(t, "PENDING", event.Status)
	assert.Equal(t, "co-1", event.TransactionID)
}
