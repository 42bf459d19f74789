package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/laundrypay/backend/internal/models"
)

// MemoryStore keeps everything in process. Each student has its own mutex,
// which plays the role of the row lock PostgresStore takes with FOR UPDATE.
type MemoryStore struct {
	mu     sync.Mutex
	slots  map[string]*studentSlot
	txns   map[string][]models.Transaction
	bills  map[string]*models.Bill
	nextID int64
	now    func() time.Time
}

type studentSlot struct {
	mu      sync.Mutex
	exists  bool
	balance models.StudentBalance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]*studentSlot),
		txns:  make(map[string][]models.Transaction),
		bills: make(map[string]*models.Bill),
		now:   time.Now,
	}
}

func (s *MemoryStore) slot(studentID string) *studentSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[studentID]
	if !ok {
		sl = &studentSlot{}
		s.slots[studentID] = sl
	}
	return sl
}

// create initializes the slot's row. Caller holds sl.mu.
func (s *MemoryStore) create(sl *studentSlot, studentID string) {
	if sl.exists {
		return
	}
	now := s.now()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	sl.balance = models.StudentBalance{
		ID:        id,
		StudentID: studentID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sl.exists = true
}

func (s *MemoryStore) GetOrCreateBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	sl := s.slot(studentID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	s.create(sl, studentID)
	bal := sl.balance
	return &bal, nil
}

func (s *MemoryStore) GetBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	s.mu.Lock()
	sl, ok := s.slots[studentID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if !sl.exists {
		return nil, nil
	}
	bal := sl.balance
	return &bal, nil
}

func (s *MemoryStore) WithStudentLock(ctx context.Context, studentID string, fn func(tx LedgerTx) error) error {
	sl := s.slot(studentID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memLedgerTx{store: s, slot: sl, studentID: studentID}
	if err := fn(tx); err != nil {
		return err
	}

	// commit
	if tx.balance != nil {
		sl.balance = *tx.balance
		sl.exists = true
	} else if tx.locked {
		s.create(sl, studentID)
	}
	if len(tx.pending) > 0 {
		s.mu.Lock()
		s.txns[studentID] = append(s.txns[studentID], tx.pending...)
		s.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, studentID string, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.txns[studentID]
	out := make([]models.Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type memLedgerTx struct {
	store     *MemoryStore
	slot      *studentSlot
	studentID string
	locked    bool
	snapshot  models.StudentBalance
	balance   *models.StudentBalance
	pending   []models.Transaction
}

func (t *memLedgerTx) LockBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	if studentID != t.studentID {
		return nil, fmt.Errorf("unit of work is locked on student %s, not %s", t.studentID, studentID)
	}
	if !t.locked {
		t.snapshot = t.slot.balance
		if !t.slot.exists {
			now := t.store.now()
			t.snapshot = models.StudentBalance{StudentID: studentID, Version: 1, CreatedAt: now, UpdatedAt: now}
		}
		t.locked = true
	}
	if t.balance != nil {
		bal := *t.balance
		return &bal, nil
	}
	bal := t.snapshot
	return &bal, nil
}

func (t *memLedgerTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if !t.locked {
		return fmt.Errorf("balance for student %s is not locked", t.studentID)
	}
	t.pending = append(t.pending, *txn)
	return nil
}

func (t *memLedgerTx) UpdateBalance(ctx context.Context, bal *models.StudentBalance) error {
	if !t.locked {
		return fmt.Errorf("balance for student %s is not locked", t.studentID)
	}
	current := t.snapshot
	if t.balance != nil {
		current = *t.balance
	}
	if bal.Version != current.Version {
		return fmt.Errorf("%w: student %s", ErrVersionConflict, bal.StudentID)
	}

	bal.Version++
	next := *bal
	if next.ID == 0 {
		t.store.mu.Lock()
		t.store.nextID++
		next.ID = t.store.nextID
		t.store.mu.Unlock()
		bal.ID = next.ID
	}
	t.balance = &next
	return nil
}

// PutBill stores or replaces a laundry order.
func (s *MemoryStore) PutBill(bill models.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := bill
	s.bills[b.ID] = &b
}

func (s *MemoryStore) GetBills(ctx context.Context, ids []string) ([]models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := make([]models.Bill, 0, len(ids))
	for _, id := range ids {
		b, ok := s.bills[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
		}
		bills = append(bills, *b)
	}
	return bills, nil
}

func (s *MemoryStore) MarkBillsPaid(ctx context.Context, payments []models.BillPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range payments {
		b, ok := s.bills[p.BillID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrBillNotFound, p.BillID)
		}
		if !b.IsPayable() {
			return fmt.Errorf("%w: %s", ErrBillNotPayable, p.BillID)
		}
	}

	for _, p := range payments {
		b := s.bills[p.BillID]
		paidAt := p.PaidAt
		b.Status = models.BillStatusPaid
		b.PaidAmount = p.PaidAmount
		b.ChangeAmount = p.ChangeAmount
		b.RoundingApplied = p.RoundingApplied
		b.WadiahUsed = p.WadiahUsed
		b.PaymentMethod = p.PaymentMethod
		b.PaidAt = &paidAt
		b.UpdatedAt = paidAt
	}
	return nil
}
