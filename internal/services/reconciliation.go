package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/config"
)

// ReconciliationCase is a checkout whose ledger rows committed while its bills
// stayed unpaid. It is resolved by hand with an adjustment transaction or by
// marking the bills paid.
type ReconciliationCase struct {
	CheckoutID      string    `json:"checkoutId"`
	StudentID       string    `json:"studentId"`
	TransactionIDs  []string  `json:"transactionIds"`
	BillIDs         []string  `json:"billIds"`
	BalanceUsed     int64     `json:"balanceUsed"`
	Sedekah         int64     `json:"sedekah"`
	ChangeDeposited int64     `json:"changeDeposited"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ReconciliationRecorder receives cases from the checkout service.
type ReconciliationRecorder interface {
	Record(ctx context.Context, c *ReconciliationCase) error
}

// ReconciliationQueue appends cases to a redis list and the audit log. Without
// redis the audit line is the only record.
type ReconciliationQueue struct {
	redis   *redis.Client
	key     string
	listMax int64
	audit   *audit.Logger
	now     func() time.Time
}

func NewReconciliationQueue(rdb *redis.Client, cfg *config.CheckoutConfig, auditLogger *audit.Logger) *ReconciliationQueue {
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &ReconciliationQueue{
		redis:   rdb,
		key:     cfg.ReconciliationKey,
		listMax: cfg.ReconciliationListMax,
		audit:   auditLogger,
		now:     time.Now,
	}
}

func (q *ReconciliationQueue) Record(ctx context.Context, c *ReconciliationCase) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = q.now()
	}

	q.audit.LogReconciliation(c.CheckoutID, c.StudentID, c.BalanceUsed, c)
	log.Printf("[RECONCILIATION] checkout %s for student %s: %s (transactions %v, bills %v)",
		c.CheckoutID, c.StudentID, c.Reason, c.TransactionIDs, c.BillIDs)

	if q.redis == nil {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := q.redis.RPush(ctx, q.key, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to queue reconciliation case %s: %w", c.CheckoutID, err)
	}
	return nil
}

// Pending returns up to limit queued cases, oldest first.
func (q *ReconciliationQueue) Pending(ctx context.Context, limit int64) ([]ReconciliationCase, error) {
	if q.redis == nil {
		return []ReconciliationCase{}, nil
	}
	if limit <= 0 || limit > q.listMax {
		limit = q.listMax
	}

	items, err := q.redis.LRange(ctx, q.key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	cases := make([]ReconciliationCase, 0, len(items))
	for _, item := range items {
		var c ReconciliationCase
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			log.Printf("[RECONCILIATION] skipping unreadable entry: %v", err)
			continue
		}
		cases = append(cases, c)
	}
	return cases, nil
}
