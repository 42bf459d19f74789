package services

import (
	"context"

	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) GetOrCreateBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentBalance), args.Error(1)
}

func (m *MockLedgerStore) GetBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentBalance), args.Error(1)
}

func (m *MockLedgerStore) WithStudentLock(ctx context.Context, studentID string, fn func(tx store.LedgerTx) error) error {
	args := m.Called(ctx, studentID, fn)
	return args.Error(0)
}

func (m *MockLedgerStore) ListTransactions(ctx context.Context, studentID string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type MockBillStore struct {
	mock.Mock
}

func (m *MockBillStore) GetBills(ctx context.Context, ids []string) ([]models.Bill, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bill), args.Error(1)
}

func (m *MockBillStore) MarkBillsPaid(ctx context.Context, payments []models.BillPayment) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

// flakyLedgerStore fails the first failures units of work before delegating.
type flakyLedgerStore struct {
	*store.MemoryStore
	failures int
	calls    int
	err      error
}

func (f *flakyLedgerStore) WithStudentLock(ctx context.Context, studentID string, fn func(tx store.LedgerTx) error) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.MemoryStore.WithStudentLock(ctx, studentID, fn)
}

// failingBillStore serves bills from a memory store but never marks them paid.
type failingBillStore struct {
	*store.MemoryStore
	err error
}

func (f *failingBillStore) MarkBillsPaid(ctx context.Context, payments []models.BillPayment) error {
	return f.err
}

// idRecordingStore records the id of every inserted transaction and rolls the
// first unit back with failFirst after it has run.
type idRecordingStore struct {
	*store.MemoryStore
	failFirst error
	calls     int
	ids       []string
}

func (r *idRecordingStore) WithStudentLock(ctx context.Context, studentID string, fn func(tx store.LedgerTx) error) error {
	r.calls++
	return r.MemoryStore.WithStudentLock(ctx, studentID, func(tx store.LedgerTx) error {
		if err := fn(&idRecordingTx{LedgerTx: tx, ids: &r.ids}); err != nil {
			return err
		}
		if r.calls == 1 && r.failFirst != nil {
			return r.failFirst
		}
		return nil
	})
}

type idRecordingTx struct {
	store.LedgerTx
	ids *[]string
}

func (t *idRecordingTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	*t.ids = append(*t.ids, txn.ID)
	return t.LedgerTx.InsertTransaction(ctx, txn)
}
