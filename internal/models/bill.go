package models

import "time"

// BillStatus mirrors the laundry_orders.status column.
type BillStatus string

const (
	BillStatusSubmitted BillStatus = "submitted"
	BillStatusApproved  BillStatus = "approved"
	BillStatusPaid      BillStatus = "paid"
	BillStatusCancelled BillStatus = "cancelled"
)

// PaymentMethod is how a checkout was tendered.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOnline   PaymentMethod = "online"
)

// IsCash reports whether change handling applies to m.
func (m PaymentMethod) IsCash() bool {
	return m == PaymentMethodCash
}

// Bill is a priced laundry order. It is owned by order management; checkout
// only reads it and marks it paid.
type Bill struct {
	ID              string        `json:"id" db:"id"`
	StudentID       string        `json:"studentId" db:"student_id"`
	TotalPrice      int64         `json:"totalPrice" db:"total_price"`
	Status          BillStatus    `json:"status" db:"status"`
	PaidAmount      int64         `json:"paidAmount" db:"paid_amount"`
	ChangeAmount    int64         `json:"changeAmount" db:"change_amount"`
	RoundingApplied int64         `json:"roundingApplied" db:"rounding_applied"`
	WadiahUsed      int64         `json:"wadiahUsed" db:"wadiah_used"`
	PaymentMethod   PaymentMethod `json:"paymentMethod,omitempty" db:"payment_method"`
	PaidAt          *time.Time    `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsPayable reports whether a checkout may still settle b.
func (b *Bill) IsPayable() bool {
	return b.Status != BillStatusPaid && b.Status != BillStatusCancelled
}

// BillPayment is what checkout records on a single bill.
type BillPayment struct {
	BillID          string        `json:"billId"`
	PaidAmount      int64         `json:"paidAmount"`
	ChangeAmount    int64         `json:"changeAmount"`
	RoundingApplied int64         `json:"roundingApplied"`
	WadiahUsed      int64         `json:"wadiahUsed"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaidAt          time.Time     `json:"paidAt"`
}
