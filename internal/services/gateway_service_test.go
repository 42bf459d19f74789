package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-redis/redismock/v8"
	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	created   map[string]int64
	statuses  map[string]*GatewayStatus
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{created: map[string]int64{}, statuses: map[string]*GatewayStatus{}}
}

func (g *fakeGateway) CreateTransaction(orderID string, amount int64, description string) (string, string, error) {
	if g.createErr != nil {
		return "", "", g.createErr
	}
	g.created[orderID] = amount
	return "snap-token-" + orderID, "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + orderID, nil
}

func (g *fakeGateway) TransactionStatus(orderID string) (*GatewayStatus, error) {
	st, ok := g.statuses[orderID]
	if !ok {
		return nil, errors.New("404 transaction not found")
	}
	return st, nil
}

var (
	gatewayNow    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	gatewayConfig = &config.MidtransConfig{
		ServerKey:    "server-key",
		IntentTTL:    24 * time.Hour,
		IntentPrefix: "wadiah:gateway:",
		OrderPrefix:  "LNDRY",
	}
)

const (
	testOrderID   = "LNDRY-0001"
	testIntentKey = "wadiah:gateway:LNDRY-0001"
	testLockKey   = "wadiah:gateway:LNDRY-0001:lock"
)

type gatewayFixture struct {
	*checkoutFixture
	svc     *GatewayService
	gateway *fakeGateway
	redis   redismock.ClientMock
}

func newGatewayFixture() *gatewayFixture {
	f := newCheckoutFixture(config.PolicyRoundDown)
	rdb, rmock := redismock.NewClientMock()
	gw := newFakeGateway()
	svc := NewGatewayService(f.checkout, gw, rdb, f.recorder, gatewayConfig, quietAudit())
	svc.now = func() time.Time { return gatewayNow }
	svc.newID = func() string { return "0001" }
	return &gatewayFixture{checkoutFixture: f, svc: svc, gateway: gw, redis: rmock}
}

// pinnedIntent is the intent CreatePayment stores for a consenting parent
// paying bill b1 of 17300.
func pinnedIntent(t *testing.T) string {
	t.Helper()
	mode := "round_down"
	consent := true
	data, err := json.Marshal(PaymentIntent{
		OrderID: testOrderID,
		Request: CheckoutRequest{
			StudentID:       "student-1",
			BillIDs:         []string{"b1"},
			PaymentMethod:   models.PaymentMethodOnline,
			RoundingMode:    &mode,
			CustomerConsent: &consent,
		},
		DueAmount: 17000,
		ActorID:   "parent-1",
		CreatedAt: gatewayNow,
	})
	require.NoError(t, err)
	return string(data)
}

func signed(status, gross string) Notification {
	return Notification{
		OrderID:           testOrderID,
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionStatus: status,
		SignatureKey:      SignNotification(testOrderID, "200", gross, gatewayConfig.ServerKey),
	}
}

func TestGatewayService_CreatePayment(t *testing.T) {
	f := newGatewayFixture()
	f.bill("b1", "student-1", 17300)
	f.redis.ExpectSet(testIntentKey, pinnedIntent(t), 24*time.Hour).SetVal("OK")

	payment, err := f.svc.CreatePayment(context.Background(), CheckoutRequest{
		StudentID: "student-1", BillIDs: []string{"b1"}, CustomerConsent: boolPtr(true),
	}, parent)
	require.NoError(t, err)

	assert.Equal(t, testOrderID, payment.OrderID)
	assert.Equal(t, int64(17000), payment.DueAmount)
	assert.Equal(t, "snap-token-"+testOrderID, payment.Token)
	assert.Equal(t, int64(17000), f.gateway.created[testOrderID])

	png, err := base64.StdEncoding.DecodeString(payment.QRImage)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
	assert.NoError(t, f.redis.ExpectationsWereMet())

	assert.Equal(t, models.BillStatusApproved, f.billStatus(t, "b1").Status)
}

func TestGatewayService_CreatePaymentRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("wadiah covers everything", func(t *testing.T) {
		f := newGatewayFixture()
		f.bill("b1", "student-1", 5000)
		process(t, f.ledger, "student-1", models.KindDeposit, 5000)

		_, err := f.svc.CreatePayment(ctx, CheckoutRequest{
			StudentID: "student-1", BillIDs: []string{"b1"}, BalanceToUse: 5000,
		}, parent)
		assert.ErrorIs(t, err, ErrNothingToPayOnline)
		assert.Empty(t, f.gateway.created)
	})

	t.Run("gateway error", func(t *testing.T) {
		f := newGatewayFixture()
		f.bill("b1", "student-1", 5000)
		f.gateway.createErr = errors.New("401 unauthorized")

		_, err := f.svc.CreatePayment(ctx, CheckoutRequest{StudentID: "student-1", BillIDs: []string{"b1"}}, parent)
		assert.Error(t, err)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("not configured", func(t *testing.T) {
		f := newCheckoutFixture(config.PolicyNone)
		svc := NewGatewayService(f.checkout, nil, nil, nil, gatewayConfig, quietAudit())

		_, err := svc.CreatePayment(ctx, CheckoutRequest{StudentID: "student-1", BillIDs: []string{"b1"}}, parent)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestGatewayService_SettlementCompletesCheckout(t *testing.T) {
	f := newGatewayFixture()
	f.bill("b1", "student-1", 17300)
	f.gateway.statuses[testOrderID] = &GatewayStatus{
		OrderID: testOrderID, TransactionStatus: "settlement", GrossAmount: "17000.00",
	}

	f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
	f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
	f.redis.ExpectDel(testIntentKey).SetVal(1)
	f.redis.ExpectDel(testLockKey).SetVal(1)

	res, err := f.svc.HandleNotification(context.Background(), signed("settlement", "17000.00"))
	require.NoError(t, err)
	assert.Equal(t, NotificationPaid, res.Status)
	require.NotNil(t, res.Checkout)
	assert.Equal(t, testOrderID, res.Checkout.CheckoutID)
	assert.Equal(t, int64(300), res.Checkout.Sedekah)
	assert.Equal(t, "midtrans", res.Checkout.Transactions[0].ActorID)

	bill := f.billStatus(t, "b1")
	assert.Equal(t, models.BillStatusPaid, bill.Status)
	assert.Equal(t, models.PaymentMethodOnline, bill.PaymentMethod)
	assert.Equal(t, int64(17000), bill.PaidAmount)
	assert.NoError(t, f.redis.ExpectationsWereMet())
}

func TestGatewayService_NotificationOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("bad signature", func(t *testing.T) {
		f := newGatewayFixture()
		n := signed("settlement", "17000.00")
		n.GrossAmount = "1.00"

		_, err := f.svc.HandleNotification(ctx, n)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newGatewayFixture()
		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).RedisNil()
		f.redis.ExpectDel(testLockKey).SetVal(1)

		res, err := f.svc.HandleNotification(ctx, signed("settlement", "17000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationIgnored, res.Status)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("duplicate delivery in flight", func(t *testing.T) {
		f := newGatewayFixture()
		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(false)

		res, err := f.svc.HandleNotification(ctx, signed("settlement", "17000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationInProgress, res.Status)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("expired payment drops the intent", func(t *testing.T) {
		f := newGatewayFixture()
		f.bill("b1", "student-1", 17300)
		f.gateway.statuses[testOrderID] = &GatewayStatus{OrderID: testOrderID, TransactionStatus: "expire", GrossAmount: "17000.00"}

		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
		f.redis.ExpectDel(testIntentKey).SetVal(1)
		f.redis.ExpectDel(testLockKey).SetVal(1)

		res, err := f.svc.HandleNotification(ctx, signed("expire", "17000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationDropped, res.Status)
		assert.Equal(t, models.BillStatusApproved, f.billStatus(t, "b1").Status)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("challenged capture stays pending", func(t *testing.T) {
		f := newGatewayFixture()
		f.gateway.statuses[testOrderID] = &GatewayStatus{
			OrderID: testOrderID, TransactionStatus: "capture", FraudStatus: "challenge", GrossAmount: "17000.00",
		}

		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
		f.redis.ExpectDel(testLockKey).SetVal(1)

		res, err := f.svc.HandleNotification(ctx, signed("capture", "17000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationPending, res.Status)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("amount mismatch is reconciled", func(t *testing.T) {
		f := newGatewayFixture()
		f.bill("b1", "student-1", 17300)
		f.gateway.statuses[testOrderID] = &GatewayStatus{OrderID: testOrderID, TransactionStatus: "settlement", GrossAmount: "15000.00"}

		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
		f.redis.ExpectDel(testIntentKey).SetVal(1)
		f.redis.ExpectDel(testLockKey).SetVal(1)

		res, err := f.svc.HandleNotification(ctx, signed("settlement", "15000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationReconciliation, res.Status)
		require.Len(t, f.recorder.cases, 1)
		assert.Equal(t, testOrderID, f.recorder.cases[0].CheckoutID)
		assert.Equal(t, models.BillStatusApproved, f.billStatus(t, "b1").Status)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("bill paid meanwhile is reconciled", func(t *testing.T) {
		f := newGatewayFixture()
		f.mem.PutBill(models.Bill{ID: "b1", StudentID: "student-1", TotalPrice: 17300, Status: models.BillStatusPaid})
		f.gateway.statuses[testOrderID] = &GatewayStatus{OrderID: testOrderID, TransactionStatus: "settlement", GrossAmount: "17000.00"}

		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
		f.redis.ExpectDel(testIntentKey).SetVal(1)
		f.redis.ExpectDel(testLockKey).SetVal(1)

		res, err := f.svc.HandleNotification(ctx, signed("settlement", "17000.00"))
		require.NoError(t, err)
		assert.Equal(t, NotificationReconciliation, res.Status)
		require.Len(t, f.recorder.cases, 1)
		assert.Empty(t, f.recorder.cases[0].TransactionIDs)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})

	t.Run("gateway status unavailable is retried later", func(t *testing.T) {
		f := newGatewayFixture()
		f.redis.ExpectSetNX(testLockKey, "1", time.Minute).SetVal(true)
		f.redis.ExpectGet(testIntentKey).SetVal(pinnedIntent(t))
		f.redis.ExpectDel(testLockKey).SetVal(1)

		_, err := f.svc.HandleNotification(ctx, signed("settlement", "17000.00"))
		assert.Error(t, err)
		assert.NoError(t, f.redis.ExpectationsWereMet())
	})
}

func TestVerifySignature(t *testing.T) {
	n := signed("settlement", "17000.00")
	assert.True(t, VerifySignature(n, "server-key"))
	assert.False(t, VerifySignature(n, "other-key"))

	n.SignatureKey = ""
	assert.False(t, VerifySignature(n, "server-key"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Laundry b1", truncate("Laundry b1", 50))

	name := truncate("Laundry "+strings.Repeat("é", 60), 50)
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, 50, utf8.RuneCountInString(name))
	assert.Equal(t, "Laundry "+strings.Repeat("é", 42), name)
}
