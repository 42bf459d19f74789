package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionKind_Sign(t *testing.T) {
	t.Run("every kind has a sign", func(t *testing.T) {
		for _, k := range TransactionKinds() {
			_, ok := k.Sign()
			assert.True(t, ok, "kind %s has no sign", k)
		}
		assert.Len(t, kindSigns, len(TransactionKinds()))
	})

	t.Run("sign table", func(t *testing.T) {
		cases := map[TransactionKind]Sign{
			KindDeposit:       SignCredit,
			KindChangeDeposit: SignCredit,
			KindAdjustment:    SignCredit,
			KindPayment:       SignDebit,
			KindRefund:        SignDebit,
			KindSedekah:       SignNeutral,
		}
		for k, want := range cases {
			got, _ := k.Sign()
			assert.Equal(t, want, got, string(k))
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, ok := TransactionKind("topup").Sign()
		assert.False(t, ok)

		_, err := ParseTransactionKind("topup")
		assert.Error(t, err)
	})
}

func TestTransactionKind_BalanceAfter(t *testing.T) {
	after, err := KindDeposit.BalanceAfter(1000, 500)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), after)

	after, err = KindPayment.BalanceAfter(1000, 400)
	assert.NoError(t, err)
	assert.Equal(t, int64(600), after)

	after, err = KindSedekah.BalanceAfter(1000, 300)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), after)

	_, err = TransactionKind("bogus").BalanceAfter(1000, 1)
	assert.Error(t, err)
}

func TestTransactionKind_RequiresConsent(t *testing.T) {
	assert.True(t, KindSedekah.RequiresConsent())
	assert.True(t, KindChangeDeposit.RequiresConsent())
	assert.False(t, KindDeposit.RequiresConsent())
	assert.False(t, KindPayment.RequiresConsent())
}

func TestStudentBalance_Apply(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	bal := StudentBalance{StudentID: "s1", Balance: 1000}

	t.Run("change deposit counts as deposited", func(t *testing.T) {
		next := bal.Apply(&Transaction{Kind: KindChangeDeposit, Amount: 200, BalanceAfter: 1200}, now)
		assert.Equal(t, int64(1200), next.Balance)
		assert.Equal(t, int64(200), next.TotalDeposited)
		assert.Equal(t, now, *next.LastTransactionAt)
		assert.Equal(t, int64(1000), bal.Balance)
	})

	t.Run("refund does not count as used", func(t *testing.T) {
		next := bal.Apply(&Transaction{Kind: KindRefund, Amount: 300, BalanceAfter: 700}, now)
		assert.Equal(t, int64(700), next.Balance)
		assert.Zero(t, next.TotalUsed)
	})

	t.Run("sedekah keeps balance", func(t *testing.T) {
		next := bal.Apply(&Transaction{Kind: KindSedekah, Amount: 300, BalanceAfter: 1000}, now)
		assert.Equal(t, int64(1000), next.Balance)
		assert.Equal(t, int64(300), next.TotalSedekah)
	})
}

func TestActor_CanWaiveConsent(t *testing.T) {
	assert.True(t, Actor{Role: RoleCashier}.CanWaiveConsent())
	assert.True(t, Actor{Role: RoleAdmin}.CanWaiveConsent())
	assert.False(t, Actor{Role: RoleParent}.CanWaiveConsent())
	assert.False(t, SystemActor("midtrans").CanWaiveConsent())
}
