package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/store"
)

const (
	maxProcessAttempts  = 2
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ProcessRequest describes one ledger mutation.
type ProcessRequest struct {
	StudentID       string
	Kind            models.TransactionKind
	Amount          int64
	OrderID         *string
	Notes           string
	CustomerConsent bool
	OriginalAmount  *int64
	RoundedAmount   *int64
	Actor           models.Actor
}

// LedgerService owns student wadiah balances. Process is the only path that
// changes a balance.
type LedgerService struct {
	store store.LedgerStore
	audit *audit.Logger
	now   func() time.Time
}

func NewLedgerService(ledger store.LedgerStore, auditLogger *audit.Logger) *LedgerService {
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &LedgerService{
		store: ledger,
		audit: auditLogger,
		now:   time.Now,
	}
}

// GetOrCreate returns the student's balance, creating an empty one if needed.
func (s *LedgerService) GetOrCreate(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	return s.store.GetOrCreateBalance(ctx, studentID)
}

// Read returns nil, nil for a student that never had a transaction.
func (s *LedgerService) Read(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	return s.store.GetBalance(ctx, studentID)
}

// History lists the student's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, studentID string, limit int) ([]models.Transaction, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.ListTransactions(ctx, studentID, limit)
}

// Process validates req and applies it as a single unit against the student's
// locked balance. Domain rejections are returned as is. Persistence failures
// are retried once, and a cancelled or expired ctx stops further attempts;
// both end as *TransactionFailedError. Every attempt reuses the same
// transaction id, so a retry after a lost commit acknowledgement conflicts on
// the primary key instead of writing a second row.
func (s *LedgerService) Process(ctx context.Context, req ProcessRequest) (*models.Transaction, error) {
	if err := s.validate(req); err != nil {
		s.audit.LogRejected(req.StudentID, req.Actor.ID, req.Kind, req.Amount, err)
		return nil, err
	}

	txID := uuid.New().String()
	var (
		lastErr  error
		attempts int
	)
	for attempts < maxProcessAttempts {
		attempts++
		txn, err := s.apply(ctx, req, txID)
		if err == nil {
			log.Printf("[LEDGER] %s %d for student %s: %d -> %d (tx %s)",
				txn.Kind, txn.Amount, txn.StudentID, txn.BalanceBefore, txn.BalanceAfter, txn.ID)
			s.audit.LogTransaction(txn)
			return txn, nil
		}

		if errors.Is(err, ErrInsufficientBalance) {
			s.audit.LogRejected(req.StudentID, req.Actor.ID, req.Kind, req.Amount, err)
			return nil, err
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Printf("[LEDGER] attempt %d of %s for student %s failed: %v", attempts, req.Kind, req.StudentID, err)
	}

	s.audit.LogError(txID, req.StudentID, lastErr)
	return nil, &TransactionFailedError{
		StudentID: req.StudentID,
		Kind:      req.Kind,
		Attempts:  attempts,
		Err:       lastErr,
	}
}

func (s *LedgerService) validate(req ProcessRequest) error {
	if req.StudentID == "" {
		return ErrStudentRequired
	}
	if req.Actor.ID == "" {
		return ErrActorRequired
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, req.Amount)
	}
	if _, ok := req.Kind.Sign(); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	if req.Kind.RequiresConsent() && !req.CustomerConsent {
		return fmt.Errorf("%w for %s", ErrConsentRequired, req.Kind)
	}
	return nil
}

func (s *LedgerService) apply(ctx context.Context, req ProcessRequest, txID string) (*models.Transaction, error) {
	var committed *models.Transaction

	err := s.store.WithStudentLock(ctx, req.StudentID, func(tx store.LedgerTx) error {
		bal, err := tx.LockBalance(ctx, req.StudentID)
		if err != nil {
			return err
		}

		sign, _ := req.Kind.Sign()
		if sign == models.SignDebit && bal.Balance < req.Amount {
			return &InsufficientBalanceError{
				StudentID:     req.StudentID,
				BalanceBefore: bal.Balance,
				Amount:        req.Amount,
			}
		}

		after, err := req.Kind.BalanceAfter(bal.Balance, req.Amount)
		if err != nil {
			return err
		}

		now := s.now()
		txn := &models.Transaction{
			ID:              txID,
			StudentID:       req.StudentID,
			Kind:            req.Kind,
			Amount:          req.Amount,
			BalanceBefore:   bal.Balance,
			BalanceAfter:    after,
			OrderID:         req.OrderID,
			OriginalAmount:  req.OriginalAmount,
			RoundedAmount:   req.RoundedAmount,
			Notes:           req.Notes,
			CustomerConsent: req.CustomerConsent,
			ActorID:         req.Actor.ID,
			CreatedAt:       now,
		}
		if req.OriginalAmount != nil && req.RoundedAmount != nil {
			diff := *req.OriginalAmount - *req.RoundedAmount
			txn.RoundingDifference = &diff
		}

		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		next := bal.Apply(txn, now)
		if err := tx.UpdateBalance(ctx, &next); err != nil {
			return err
		}

		committed = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}
