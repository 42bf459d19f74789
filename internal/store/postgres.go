package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/laundrypay/backend/internal/models"
	"github.com/lib/pq"
)

const balanceColumns = `id, student_id, balance, total_deposited, total_used, total_sedekah,
	last_transaction_at, version, created_at, updated_at`

const transactionColumns = `id, student_id, kind, amount, balance_before, balance_after, order_id,
	original_amount, rounded_amount, rounding_difference, notes, customer_consent, actor_id, created_at`

const billColumns = `id, student_id, total_price, status, paid_amount, change_amount,
	rounding_applied, wadiah_used, payment_method, paid_at, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements LedgerStore and BillStore on database/sql.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// ensureBalance creates the row if it is missing. ON CONFLICT makes concurrent
// callers converge on the single row guarded by the unique student_id index.
func (s *PostgresStore) ensureBalance(ctx context.Context, ex execer, studentID string) error {
	now := s.now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO student_balances (student_id, balance, total_deposited, total_used, total_sedekah, version, created_at, updated_at)
		VALUES ($1, 0, 0, 0, 0, 1, $2, $2)
		ON CONFLICT (student_id) DO NOTHING`,
		studentID, now)
	if err != nil {
		return fmt.Errorf("failed to create balance for student %s: %w", studentID, err)
	}
	return nil
}

func (s *PostgresStore) GetOrCreateBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	if err := s.ensureBalance(ctx, s.db, studentID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM student_balances WHERE student_id = $1`, studentID)
	return scanBalance(row)
}

func (s *PostgresStore) GetBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM student_balances WHERE student_id = $1`, studentID)
	bal, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return bal, err
}

func (s *PostgresStore) WithStudentLock(ctx context.Context, studentID string, fn func(tx LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgLedgerTx{store: s, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, studentID string, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM wadiah_transactions
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

type pgLedgerTx struct {
	store *PostgresStore
	tx    *sql.Tx
}

func (t *pgLedgerTx) LockBalance(ctx context.Context, studentID string) (*models.StudentBalance, error) {
	if err := t.store.ensureBalance(ctx, t.tx, studentID); err != nil {
		return nil, err
	}
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+balanceColumns+`
		FROM student_balances
		WHERE student_id = $1
		FOR UPDATE`, studentID)
	bal, err := scanBalance(row)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance for student %s: %w", studentID, err)
	}
	return bal, nil
}

func (t *pgLedgerTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wadiah_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		txn.ID, txn.StudentID, string(txn.Kind), txn.Amount, txn.BalanceBefore, txn.BalanceAfter,
		nullString(txn.OrderID), nullInt64(txn.OriginalAmount), nullInt64(txn.RoundedAmount),
		nullInt64(txn.RoundingDifference), txn.Notes, txn.CustomerConsent, txn.ActorID, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (t *pgLedgerTx) UpdateBalance(ctx context.Context, bal *models.StudentBalance) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE student_balances
		SET balance = $1, total_deposited = $2, total_used = $3, total_sedekah = $4,
			last_transaction_at = $5, version = version + 1, updated_at = $6
		WHERE student_id = $7 AND version = $8`,
		bal.Balance, bal.TotalDeposited, bal.TotalUsed, bal.TotalSedekah,
		bal.LastTransactionAt, bal.UpdatedAt, bal.StudentID, bal.Version)
	if err != nil {
		return fmt.Errorf("failed to update balance for student %s: %w", bal.StudentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: student %s", ErrVersionConflict, bal.StudentID)
	}

	bal.Version++
	return nil
}

func (s *PostgresStore) GetBills(ctx context.Context, ids []string) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+billColumns+` FROM laundry_orders WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]models.Bill, len(ids))
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		found[bill.ID] = *bill
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bills := make([]models.Bill, 0, len(ids))
	for _, id := range ids {
		bill, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func (s *PostgresStore) MarkBillsPaid(ctx context.Context, payments []models.BillPayment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback()

	for _, p := range payments {
		result, err := tx.ExecContext(ctx, `
			UPDATE laundry_orders
			SET status = $1, paid_amount = $2, change_amount = $3, rounding_applied = $4,
				wadiah_used = $5, payment_method = $6, paid_at = $7, updated_at = $7
			WHERE id = $8 AND status NOT IN ('paid', 'cancelled')`,
			string(models.BillStatusPaid), p.PaidAmount, p.ChangeAmount, p.RoundingApplied,
			p.WadiahUsed, string(p.PaymentMethod), p.PaidAt, p.BillID)
		if err != nil {
			return fmt.Errorf("failed to mark bill %s paid: %w", p.BillID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrBillNotPayable, p.BillID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func scanBalance(row rowScanner) (*models.StudentBalance, error) {
	var bal models.StudentBalance
	var lastTx sql.NullTime
	err := row.Scan(&bal.ID, &bal.StudentID, &bal.Balance, &bal.TotalDeposited, &bal.TotalUsed,
		&bal.TotalSedekah, &lastTx, &bal.Version, &bal.CreatedAt, &bal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastTx.Valid {
		bal.LastTransactionAt = &lastTx.Time
	}
	return &bal, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var kind string
	var orderID sql.NullString
	var original, rounded, diff sql.NullInt64
	err := row.Scan(&txn.ID, &txn.StudentID, &kind, &txn.Amount, &txn.BalanceBefore, &txn.BalanceAfter,
		&orderID, &original, &rounded, &diff, &txn.Notes, &txn.CustomerConsent, &txn.ActorID, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	txn.Kind = models.TransactionKind(kind)
	if orderID.Valid {
		txn.OrderID = &orderID.String
	}
	txn.OriginalAmount = int64Ptr(original)
	txn.RoundedAmount = int64Ptr(rounded)
	txn.RoundingDifference = int64Ptr(diff)
	return &txn, nil
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var bill models.Bill
	var status string
	var method sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(&bill.ID, &bill.StudentID, &bill.TotalPrice, &status, &bill.PaidAmount, &bill.ChangeAmount,
		&bill.RoundingApplied, &bill.WadiahUsed, &method, &paidAt, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)
	bill.PaymentMethod = models.PaymentMethod(method.String)
	if paidAt.Valid {
		bill.PaidAt = &paidAt.Time
	}
	return &bill, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
