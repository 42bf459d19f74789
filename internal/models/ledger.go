package models

import (
	"time"
)

// StudentBalance is the running wadiah balance held for one student.
type StudentBalance struct {
	ID                int64      `json:"id" db:"id"`
	StudentID         string     `json:"studentId" db:"student_id"`
	Balance           int64      `json:"balance" db:"balance"` // whole Rupiah
	TotalDeposited    int64      `json:"totalDeposited" db:"total_deposited"`
	TotalUsed         int64      `json:"totalUsed" db:"total_used"`
	TotalSedekah      int64      `json:"totalSedekah" db:"total_sedekah"`
	LastTransactionAt *time.Time `json:"lastTransactionAt" db:"last_transaction_at"`
	Version           int        `json:"-" db:"version"` // for optimistic locking
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// Apply returns the balance row as it must look after txn has been recorded.
// The receiver is left untouched.
func (b StudentBalance) Apply(txn *Transaction, at time.Time) StudentBalance {
	next := b
	next.Balance = txn.BalanceAfter

	switch txn.Kind {
	case KindDeposit, KindChangeDeposit:
		next.TotalDeposited += txn.Amount
	case KindPayment:
		next.TotalUsed += txn.Amount
	case KindSedekah:
		next.TotalSedekah += txn.Amount
	}

	next.LastTransactionAt = &at
	next.UpdatedAt = at
	return next
}
