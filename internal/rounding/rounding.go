// Package rounding computes what a checkout owes once wadiah usage and the
// rounding policy are applied. Everything here is pure; misuse panics.
package rounding

import (
	"fmt"

	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/models"
)

// Mode is the rounding applied to the amount left after wadiah usage.
// Rounding is a discount; rounding up is not a mode.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeRoundDown Mode = "round_down"
)

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeRoundDown:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown rounding mode %q", s)
}

// ModeForPolicy returns the rounding mode implied by a configured policy.
func ModeForPolicy(p config.Policy) Mode {
	if p == config.PolicyRoundDown {
		return ModeRoundDown
	}
	return ModeNone
}

func mustMultiple(multiple int64) {
	if multiple <= 0 {
		panic(fmt.Sprintf("rounding: multiple must be positive, got %d", multiple))
	}
}

func mustNonNegative(name string, v int64) {
	if v < 0 {
		panic(fmt.Sprintf("rounding: %s must not be negative, got %d", name, v))
	}
}

// RoundDown floors amount to a multiple of multiple.
func RoundDown(amount, multiple int64) int64 {
	mustMultiple(multiple)
	mustNonNegative("amount", amount)
	return amount / multiple * multiple
}

// RoundingDifference is what RoundDown takes off amount.
func RoundingDifference(amount, multiple int64) int64 {
	return amount - RoundDown(amount, multiple)
}

// NeedsRounding reports whether amount is not already a multiple.
func NeedsRounding(amount, multiple int64) bool {
	mustMultiple(multiple)
	mustNonNegative("amount", amount)
	return amount%multiple != 0
}

// Input describes one settlement.
type Input struct {
	BillTotal        int64
	BalanceToUse     int64
	AvailableBalance int64
	Mode             Mode
	Method           models.PaymentMethod // empty means cash
	PaidAmount       int64                // cash tendered; ignored for non-cash methods
	Multiple         int64
}

// Result is the settlement breakdown. DueAmount + RoundingDiscount always
// equals BillTotal - BalanceToUse.
type Result struct {
	AmountAfterBalance int64 `json:"amountAfterBalance"`
	DueAmount          int64 `json:"dueAmount"`
	RoundingDiscount   int64 `json:"roundingDiscount"`
	PaidAmount         int64 `json:"paidAmount"`
	ChangeAmount       int64 `json:"changeAmount"`
	Sufficient         bool  `json:"sufficient"`
}

// Compute runs the settlement for in.
func Compute(in Input) Result {
	mustMultiple(in.Multiple)
	mustNonNegative("bill total", in.BillTotal)
	mustNonNegative("balance to use", in.BalanceToUse)
	mustNonNegative("available balance", in.AvailableBalance)
	mustNonNegative("paid amount", in.PaidAmount)
	if in.BalanceToUse > min(in.AvailableBalance, in.BillTotal) {
		panic(fmt.Sprintf("rounding: balance to use %d exceeds min(available %d, bill total %d)",
			in.BalanceToUse, in.AvailableBalance, in.BillTotal))
	}

	var res Result
	res.AmountAfterBalance = in.BillTotal - in.BalanceToUse

	switch in.Mode {
	case ModeRoundDown:
		res.DueAmount = RoundDown(res.AmountAfterBalance, in.Multiple)
	case ModeNone, "":
		res.DueAmount = res.AmountAfterBalance
	default:
		panic(fmt.Sprintf("rounding: unknown mode %q", in.Mode))
	}
	res.RoundingDiscount = res.AmountAfterBalance - res.DueAmount

	if in.Method != "" && !in.Method.IsCash() {
		// Transfer and online payments tender exactly what is due.
		res.PaidAmount = res.DueAmount
		res.Sufficient = true
		return res
	}

	res.PaidAmount = in.PaidAmount
	res.ChangeAmount = max(0, in.PaidAmount-res.DueAmount)
	res.Sufficient = in.PaidAmount >= res.DueAmount
	return res
}
