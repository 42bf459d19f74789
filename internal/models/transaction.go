package models

import (
	"fmt"
	"time"
)

// TransactionKind names one kind of wadiah ledger mutation.
type TransactionKind string

const (
	KindDeposit       TransactionKind = "deposit"
	KindChangeDeposit TransactionKind = "change_deposit"
	KindPayment       TransactionKind = "payment"
	KindRefund        TransactionKind = "refund"
	KindAdjustment    TransactionKind = "adjustment"
	KindSedekah       TransactionKind = "sedekah"
)

// Sign says how a kind moves the balance.
type Sign int

const (
	SignNeutral Sign = iota
	SignCredit
	SignDebit
)

func (s Sign) String() string {
	switch s {
	case SignCredit:
		return "credit"
	case SignDebit:
		return "debit"
	default:
		return "neutral"
	}
}

// kindSigns is the only place a kind gets its balance behaviour. A kind missing
// here is rejected by the processor instead of falling through to a default.
var kindSigns = map[TransactionKind]Sign{
	KindDeposit:       SignCredit,
	KindChangeDeposit: SignCredit,
	KindAdjustment:    SignCredit,
	KindPayment:       SignDebit,
	KindRefund:        SignDebit,
	KindSedekah:       SignNeutral,
}

// TransactionKinds lists every kind in declaration order.
func TransactionKinds() []TransactionKind {
	return []TransactionKind{
		KindDeposit,
		KindChangeDeposit,
		KindPayment,
		KindRefund,
		KindAdjustment,
		KindSedekah,
	}
}

// Sign reports the balance direction for k.
func (k TransactionKind) Sign() (Sign, bool) {
	s, ok := kindSigns[k]
	return s, ok
}

// RequiresConsent reports whether k is a discretionary policy that may only be
// applied with the customer's consent.
func (k TransactionKind) RequiresConsent() bool {
	return k == KindChangeDeposit || k == KindSedekah
}

// ParseTransactionKind converts s into a known kind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(s)
	if _, ok := kindSigns[k]; !ok {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// BalanceAfter computes the balance after applying amount of kind k to before.
// Debits are not checked against before here; the processor does that.
func (k TransactionKind) BalanceAfter(before, amount int64) (int64, error) {
	sign, ok := k.Sign()
	if !ok {
		return 0, fmt.Errorf("unknown transaction kind %q", k)
	}
	switch sign {
	case SignCredit:
		return before + amount, nil
	case SignDebit:
		return before - amount, nil
	default:
		return before, nil
	}
}

// Transaction is one immutable wadiah ledger row.
type Transaction struct {
	ID                 string          `json:"id" db:"id"`
	StudentID          string          `json:"studentId" db:"student_id"`
	Kind               TransactionKind `json:"kind" db:"kind"`
	Amount             int64           `json:"amount" db:"amount"`
	BalanceBefore      int64           `json:"balanceBefore" db:"balance_before"`
	BalanceAfter       int64           `json:"balanceAfter" db:"balance_after"`
	OrderID            *string         `json:"orderId,omitempty" db:"order_id"`
	OriginalAmount     *int64          `json:"originalAmount,omitempty" db:"original_amount"`
	RoundedAmount      *int64          `json:"roundedAmount,omitempty" db:"rounded_amount"`
	RoundingDifference *int64          `json:"roundingDifference,omitempty" db:"rounding_difference"`
	Notes              string          `json:"notes,omitempty" db:"notes"`
	CustomerConsent    bool            `json:"customerConsent" db:"customer_consent"`
	ActorID            string          `json:"actorId,omitempty" db:"actor_id"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
}
