package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/rounding"
	"github.com/laundrypay/backend/internal/store"
)

// CheckoutState is a step of the checkout state machine.
type CheckoutState string

const (
	StateStarted                CheckoutState = "started"
	StateBalanceApplied         CheckoutState = "balance_applied"
	StateSettlementComputed     CheckoutState = "settlement_computed"
	StateChangeOrSedekahApplied CheckoutState = "change_or_sedekah_applied"
	StateBillsMarkedPaid        CheckoutState = "bills_marked_paid"
	StateDone                   CheckoutState = "done"
	StateAborted                CheckoutState = "aborted"
)

// CheckoutRequest settles one or more bills of a single student.
type CheckoutRequest struct {
	CheckoutID          string               `json:"-"`
	StudentID           string               `json:"studentId" validate:"required"`
	BillIDs             []string             `json:"billIds" validate:"required,min=1,dive,required"`
	BalanceToUse        int64                `json:"balanceToUse" validate:"gte=0"`
	PaidAmount          int64                `json:"paidAmount" validate:"gte=0"`
	PaymentMethod       models.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash transfer online"`
	RoundingMode        *string              `json:"roundingMode,omitempty" validate:"omitempty,oneof=none round_down"`
	CustomerConsent     *bool                `json:"customerConsent,omitempty"`
	SaveChangeAsBalance *bool                `json:"saveChangeAsBalance,omitempty"`
	Notes               string               `json:"notes,omitempty" validate:"max=500"`
}

// SettlementPreview is what a checkout would do, computed without writing.
type SettlementPreview struct {
	StudentID           string          `json:"studentId"`
	BillIDs             []string        `json:"billIds"`
	BillTotal           int64           `json:"billTotal"`
	AvailableBalance    int64           `json:"availableBalance"`
	BalanceToUse        int64           `json:"balanceToUse"`
	RoundingMode        rounding.Mode   `json:"roundingMode"`
	CustomerConsent     bool            `json:"customerConsent"`
	SaveChangeAsBalance bool            `json:"saveChangeAsBalance"`
	Settlement          rounding.Result `json:"settlement"`
}

// CheckoutResult describes a checkout. On failure it still lists the states
// visited and any transactions that committed.
type CheckoutResult struct {
	CheckoutID      string               `json:"checkoutId"`
	StudentID       string               `json:"studentId"`
	BillTotal       int64                `json:"billTotal"`
	BalanceUsed     int64                `json:"balanceUsed"`
	Settlement      rounding.Result      `json:"settlement"`
	Sedekah         int64                `json:"sedekah"`
	ChangeDeposited int64                `json:"changeDeposited"`
	Transactions    []models.Transaction `json:"transactions"`
	Bills           []models.BillPayment `json:"bills"`
	States          []CheckoutState      `json:"states"`
	PaidAt          *time.Time           `json:"paidAt,omitempty"`
}

func (r *CheckoutResult) enter(state CheckoutState) {
	r.States = append(r.States, state)
}

// State is the last state the checkout reached.
func (r *CheckoutResult) State() CheckoutState {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

type checkoutPlan struct {
	bills      []models.Bill
	billTotal  int64
	available  int64
	mode       rounding.Mode
	consent    bool
	saveChange bool
	method     models.PaymentMethod
	projected  rounding.Result
}

// CheckoutService sequences a checkout: wadiah usage, settlement, sedekah or
// change deposit, then marking the bills paid.
type CheckoutService struct {
	ledger   *LedgerService
	bills    store.BillStore
	settings config.RoundingSettings
	recorder ReconciliationRecorder
	audit    *audit.Logger
	now      func() time.Time
}

func NewCheckoutService(ledger *LedgerService, bills store.BillStore, settings config.RoundingSettings,
	recorder ReconciliationRecorder, auditLogger *audit.Logger) *CheckoutService {
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &CheckoutService{
		ledger:   ledger,
		bills:    bills,
		settings: settings,
		recorder: recorder,
		audit:    auditLogger,
		now:      time.Now,
	}
}

// Settings returns the rounding settings checkouts run with.
func (s *CheckoutService) Settings() config.RoundingSettings {
	return s.settings
}

// Preview computes the settlement for req without touching the ledger or bills.
func (s *CheckoutService) Preview(ctx context.Context, req CheckoutRequest, actor models.Actor) (*SettlementPreview, error) {
	plan, err := s.plan(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	return &SettlementPreview{
		StudentID:           req.StudentID,
		BillIDs:             req.BillIDs,
		BillTotal:           plan.billTotal,
		AvailableBalance:    plan.available,
		BalanceToUse:        req.BalanceToUse,
		RoundingMode:        plan.mode,
		CustomerConsent:     plan.consent,
		SaveChangeAsBalance: plan.saveChange,
		Settlement:          plan.projected,
	}, nil
}

// Checkout runs the full checkout for req. Every precondition is checked
// before the first ledger write. Ledger rows are never reversed here: once one
// has committed, any later failure is returned as *ReconciliationRequiredError
// and recorded for manual follow-up.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, actor models.Actor) (*CheckoutResult, error) {
	checkoutID := req.CheckoutID
	if checkoutID == "" {
		checkoutID = uuid.New().String()
	}
	result := &CheckoutResult{
		CheckoutID:   checkoutID,
		StudentID:    req.StudentID,
		Transactions: []models.Transaction{},
	}
	result.enter(StateStarted)

	plan, err := s.plan(ctx, req, actor)
	if err != nil {
		return s.abort(result, err)
	}
	result.BillTotal = plan.billTotal
	if !plan.projected.Sufficient {
		return s.abort(result, fmt.Errorf("%w: due %d, paid %d",
			ErrInsufficientPayment, plan.projected.DueAmount, req.PaidAmount))
	}

	orderID, notes := orderReference(checkoutID, plan.bills, req.Notes)

	available := plan.available
	if req.BalanceToUse > 0 {
		txn, err := s.ledger.Process(ctx, ProcessRequest{
			StudentID:       req.StudentID,
			Kind:            models.KindPayment,
			Amount:          req.BalanceToUse,
			OrderID:         orderID,
			Notes:           notes,
			CustomerConsent: plan.consent,
			Actor:           actor,
		})
		if err != nil {
			return s.fail(ctx, result, plan, err)
		}
		result.Transactions = append(result.Transactions, *txn)
		result.BalanceUsed = txn.Amount
		available = txn.BalanceBefore
		result.enter(StateBalanceApplied)
	}

	settlement := rounding.Compute(rounding.Input{
		BillTotal:        plan.billTotal,
		BalanceToUse:     req.BalanceToUse,
		AvailableBalance: available,
		Mode:             plan.mode,
		Method:           plan.method,
		PaidAmount:       req.PaidAmount,
		Multiple:         s.settings.Multiple,
	})
	result.Settlement = settlement
	result.enter(StateSettlementComputed)

	applied := false
	if settlement.RoundingDiscount > 0 && plan.consent {
		original, rounded := settlement.AmountAfterBalance, settlement.DueAmount
		txn, err := s.ledger.Process(ctx, ProcessRequest{
			StudentID:       req.StudentID,
			Kind:            models.KindSedekah,
			Amount:          settlement.RoundingDiscount,
			OrderID:         orderID,
			Notes:           notes,
			CustomerConsent: true,
			OriginalAmount:  &original,
			RoundedAmount:   &rounded,
			Actor:           actor,
		})
		if err != nil {
			return s.fail(ctx, result, plan, err)
		}
		result.Transactions = append(result.Transactions, *txn)
		result.Sedekah = txn.Amount
		applied = true
	}

	if settlement.ChangeAmount > 0 && plan.saveChange {
		txn, err := s.ledger.Process(ctx, ProcessRequest{
			StudentID:       req.StudentID,
			Kind:            models.KindChangeDeposit,
			Amount:          settlement.ChangeAmount,
			OrderID:         orderID,
			Notes:           notes,
			CustomerConsent: true,
			Actor:           actor,
		})
		if err != nil {
			return s.fail(ctx, result, plan, err)
		}
		result.Transactions = append(result.Transactions, *txn)
		result.ChangeDeposited = txn.Amount
		applied = true
	}
	if applied {
		result.enter(StateChangeOrSedekahApplied)
	}

	paidAt := s.now()
	payments := splitPayments(plan.bills, settlement, req.BalanceToUse, plan.method, paidAt)
	if err := s.bills.MarkBillsPaid(ctx, payments); err != nil {
		return s.fail(ctx, result, plan, err)
	}
	result.Bills = payments
	result.PaidAt = &paidAt
	result.enter(StateBillsMarkedPaid)
	result.enter(StateDone)

	log.Printf("[CHECKOUT] %s done for student %s: total %d, wadiah %d, due %d, sedekah %d, change %d (saved %d)",
		checkoutID, req.StudentID, plan.billTotal, result.BalanceUsed, settlement.DueAmount,
		result.Sedekah, settlement.ChangeAmount, result.ChangeDeposited)
	s.audit.LogOperation(checkoutID, req.StudentID, "CHECKOUT_COMPLETED", settlement.DueAmount, map[string]any{
		"bill_ids":         req.BillIDs,
		"payment_method":   plan.method,
		"balance_used":     result.BalanceUsed,
		"sedekah":          result.Sedekah,
		"change_amount":    settlement.ChangeAmount,
		"change_deposited": result.ChangeDeposited,
	})
	return result, nil
}

// plan validates req against the bills and the current balance and projects
// the settlement. It never writes.
func (s *CheckoutService) plan(ctx context.Context, req CheckoutRequest, actor models.Actor) (*checkoutPlan, error) {
	if req.StudentID == "" {
		return nil, ErrStudentRequired
	}
	if len(req.BillIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one bill is required", ErrInvalidCheckout)
	}
	seen := make(map[string]bool, len(req.BillIDs))
	for _, id := range req.BillIDs {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: bill ids must be unique and non-empty", ErrInvalidCheckout)
		}
		seen[id] = true
	}
	if req.BalanceToUse < 0 || req.PaidAmount < 0 {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidAmount)
	}

	plan := &checkoutPlan{method: req.PaymentMethod}
	if plan.method == "" {
		plan.method = models.PaymentMethodCash
	}
	switch plan.method {
	case models.PaymentMethodCash, models.PaymentMethodTransfer, models.PaymentMethodOnline:
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidCheckout, plan.method)
	}

	bills, err := s.bills.GetBills(ctx, req.BillIDs)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		b := &bills[i]
		if b.StudentID != req.StudentID {
			return nil, fmt.Errorf("%w: bill %s belongs to another student", ErrInvalidCheckout, b.ID)
		}
		if !b.IsPayable() {
			return nil, fmt.Errorf("%w: %s is %s", store.ErrBillNotPayable, b.ID, b.Status)
		}
		if b.TotalPrice < 0 {
			return nil, fmt.Errorf("%w: bill %s has a negative total", ErrInvalidCheckout, b.ID)
		}
		plan.billTotal += b.TotalPrice
	}
	plan.bills = bills

	plan.consent = actor.CanWaiveConsent()
	if req.CustomerConsent != nil {
		plan.consent = *req.CustomerConsent
	}

	plan.mode = rounding.ModeForPolicy(s.settings.DefaultPolicy)
	if req.RoundingMode != nil {
		mode, err := rounding.ParseMode(*req.RoundingMode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCheckout, err)
		}
		if mode == rounding.ModeRoundDown && !plan.consent {
			return nil, fmt.Errorf("%w for rounding", ErrConsentRequired)
		}
		plan.mode = mode
	} else if !plan.consent {
		plan.mode = rounding.ModeNone
	}

	plan.saveChange = s.settings.DefaultPolicy == config.PolicyToWadiah
	if req.SaveChangeAsBalance != nil {
		if *req.SaveChangeAsBalance && !plan.consent {
			return nil, fmt.Errorf("%w to save change as balance", ErrConsentRequired)
		}
		plan.saveChange = *req.SaveChangeAsBalance
	} else if !plan.consent {
		plan.saveChange = false
	}

	bal, err := s.ledger.Read(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if bal != nil {
		plan.available = bal.Balance
	}
	if req.BalanceToUse > plan.available {
		return nil, &InsufficientBalanceError{
			StudentID:     req.StudentID,
			BalanceBefore: plan.available,
			Amount:        req.BalanceToUse,
		}
	}
	if req.BalanceToUse > plan.billTotal {
		return nil, fmt.Errorf("%w: balance to use %d exceeds bill total %d",
			ErrInvalidCheckout, req.BalanceToUse, plan.billTotal)
	}

	plan.projected = rounding.Compute(rounding.Input{
		BillTotal:        plan.billTotal,
		BalanceToUse:     req.BalanceToUse,
		AvailableBalance: plan.available,
		Mode:             plan.mode,
		Method:           plan.method,
		PaidAmount:       req.PaidAmount,
		Multiple:         s.settings.Multiple,
	})
	return plan, nil
}

func (s *CheckoutService) abort(result *CheckoutResult, err error) (*CheckoutResult, error) {
	result.enter(StateAborted)
	log.Printf("[CHECKOUT] %s aborted for student %s: %v", result.CheckoutID, result.StudentID, err)
	return result, err
}

// fail aborts the checkout and, when ledger rows already committed, files a
// reconciliation case for them.
func (s *CheckoutService) fail(ctx context.Context, result *CheckoutResult, plan *checkoutPlan, err error) (*CheckoutResult, error) {
	if len(result.Transactions) == 0 {
		return s.abort(result, err)
	}

	c := &ReconciliationCase{
		CheckoutID:      result.CheckoutID,
		StudentID:       result.StudentID,
		BillIDs:         make([]string, 0, len(plan.bills)),
		BalanceUsed:     result.BalanceUsed,
		Sedekah:         result.Sedekah,
		ChangeDeposited: result.ChangeDeposited,
		Reason:          err.Error(),
		CreatedAt:       s.now(),
	}
	for _, txn := range result.Transactions {
		c.TransactionIDs = append(c.TransactionIDs, txn.ID)
	}
	for _, b := range plan.bills {
		c.BillIDs = append(c.BillIDs, b.ID)
	}

	if s.recorder != nil {
		if recErr := s.recorder.Record(ctx, c); recErr != nil {
			log.Printf("[CHECKOUT] failed to queue reconciliation for %s: %v", c.CheckoutID, recErr)
		}
	} else {
		s.audit.LogReconciliation(c.CheckoutID, c.StudentID, c.BalanceUsed, c)
	}

	return s.abort(result, &ReconciliationRequiredError{Case: c, Err: err})
}

// orderReference links ledger rows to the bill they settle. A checkout over
// several bills has no single order id, so the bills go into the notes.
func orderReference(checkoutID string, bills []models.Bill, notes string) (*string, string) {
	if len(bills) == 1 {
		id := bills[0].ID
		if notes == "" {
			notes = "checkout " + checkoutID
		}
		return &id, notes
	}

	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	ref := fmt.Sprintf("checkout %s: bills %s", checkoutID, strings.Join(ids, ", "))
	if notes != "" {
		ref += "; " + notes
	}
	return nil, ref
}

// splitPayments spreads the checkout amounts over its bills in proportion to
// each bill's total. Rounding remainders go to the last bill, so every column
// sums to the checkout amount.
func splitPayments(bills []models.Bill, settlement rounding.Result, balanceUsed int64,
	method models.PaymentMethod, paidAt time.Time) []models.BillPayment {
	weights := make([]int64, len(bills))
	for i, b := range bills {
		weights[i] = b.TotalPrice
	}

	paid := splitAmount(settlement.PaidAmount, weights)
	change := splitAmount(settlement.ChangeAmount, weights)
	roundingApplied := splitAmount(settlement.RoundingDiscount, weights)
	wadiah := splitAmount(balanceUsed, weights)

	payments := make([]models.BillPayment, len(bills))
	for i, b := range bills {
		payments[i] = models.BillPayment{
			BillID:          b.ID,
			PaidAmount:      paid[i],
			ChangeAmount:    change[i],
			RoundingApplied: roundingApplied[i],
			WadiahUsed:      wadiah[i],
			PaymentMethod:   method,
			PaidAt:          paidAt,
		}
	}
	return payments
}

func splitAmount(total int64, weights []int64) []int64 {
	shares := make([]int64, len(weights))
	if len(weights) == 0 {
		return shares
	}

	var sum int64
	for _, w := range weights {
		sum += w
	}
	last := len(weights) - 1
	if sum == 0 {
		shares[last] = total
		return shares
	}

	// total*weight can exceed int64 for large multi-bill checkouts.
	bigTotal, bigSum := big.NewInt(total), big.NewInt(sum)
	var allocated int64
	for i := 0; i < last; i++ {
		share := new(big.Int).Mul(bigTotal, big.NewInt(weights[i]))
		shares[i] = share.Quo(share, bigSum).Int64()
		allocated += shares[i]
	}
	shares[last] = total - allocated
	return shares
}

// IsDomainError reports whether err is a rejection the caller can act on, as
// opposed to a failure worth retrying later.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrConsentRequired) ||
		errors.Is(err, ErrStudentRequired) ||
		errors.Is(err, ErrActorRequired) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrInvalidCheckout) ||
		errors.Is(err, store.ErrBillNotFound) ||
		errors.Is(err, store.ErrBillNotPayable)
}
