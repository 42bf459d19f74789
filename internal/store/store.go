// Package store persists wadiah balances, their transactions and the laundry
// orders a checkout settles.
package store

import (
	"context"
	"errors"

	"github.com/laundrypay/backend/internal/models"
)

var (
	ErrBillNotFound    = errors.New("bill not found")
	ErrBillNotPayable  = errors.New("bill is already paid or cancelled")
	ErrVersionConflict = errors.New("student balance was modified concurrently")
)

// LedgerTx is the unit of work a LedgerStore hands to WithStudentLock. The
// balance returned by LockBalance stays locked until the unit finishes.
type LedgerTx interface {
	LockBalance(ctx context.Context, studentID string) (*models.StudentBalance, error)
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	UpdateBalance(ctx context.Context, bal *models.StudentBalance) error
}

// LedgerStore is the only writer of student balances.
type LedgerStore interface {
	// GetOrCreateBalance never creates two rows for the same student.
	GetOrCreateBalance(ctx context.Context, studentID string) (*models.StudentBalance, error)
	// GetBalance returns nil, nil when the student has no balance row yet.
	GetBalance(ctx context.Context, studentID string) (*models.StudentBalance, error)
	// WithStudentLock runs fn serialized against every other unit for the
	// same student. Nothing fn wrote survives if it returns an error.
	WithStudentLock(ctx context.Context, studentID string, fn func(tx LedgerTx) error) error
	ListTransactions(ctx context.Context, studentID string, limit int) ([]models.Transaction, error)
}

// BillStore reads laundry orders and marks them paid.
type BillStore interface {
	// GetBills returns bills in the order of ids, or ErrBillNotFound.
	GetBills(ctx context.Context, ids []string) ([]models.Bill, error)
	// MarkBillsPaid updates every bill or none of them.
	MarkBillsPaid(ctx context.Context, payments []models.BillPayment) error
}
