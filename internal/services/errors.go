package services

import (
	"errors"
	"fmt"

	"github.com/laundrypay/backend/internal/models"
)

var (
	ErrInvalidAmount          = errors.New("amount must be a positive whole number of Rupiah")
	ErrInvalidKind            = errors.New("unknown transaction kind")
	ErrConsentRequired        = errors.New("customer consent is required")
	ErrStudentRequired        = errors.New("student id is required")
	ErrActorRequired          = errors.New("actor id is required")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientPayment    = errors.New("paid amount does not cover the amount due")
	ErrInvalidCheckout        = errors.New("invalid checkout request")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrReconciliationRequired = errors.New("checkout requires manual reconciliation")
)

// InsufficientBalanceError carries what the caller needs to tell the customer
// how much is missing.
type InsufficientBalanceError struct {
	StudentID     string
	BalanceBefore int64
	Amount        int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for student %s: balance %d, requested %d",
		e.StudentID, e.BalanceBefore, e.Amount)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Shortfall is how much the balance lacks to cover Amount.
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Amount - e.BalanceBefore
}

// TransactionFailedError is returned once a ledger write has failed on every attempt.
type TransactionFailedError struct {
	StudentID string
	Kind      models.TransactionKind
	Attempts  int
	Err       error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s transaction for student %s failed after %d attempts: %v",
		e.Kind, e.StudentID, e.Attempts, e.Err)
}

func (e *TransactionFailedError) Unwrap() error {
	return e.Err
}

func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// ReconciliationRequiredError reports a checkout that left committed ledger
// rows behind without settling its bills.
type ReconciliationRequiredError struct {
	Case *ReconciliationCase
	Err  error
}

func (e *ReconciliationRequiredError) Error() string {
	return fmt.Sprintf("checkout %s for student %s needs reconciliation: %v",
		e.Case.CheckoutID, e.Case.StudentID, e.Err)
}

func (e *ReconciliationRequiredError) Unwrap() error {
	return e.Err
}

func (e *ReconciliationRequiredError) Is(target error) bool {
	return target == ErrReconciliationRequired
}
