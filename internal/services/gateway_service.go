package services

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/models"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/skip2/go-qrcode"
)

var (
	ErrInvalidSignature     = errors.New("invalid notification signature")
	ErrGatewayUnavailable   = errors.New("online payments are not configured")
	ErrGatewayAmountChanged = errors.New("settled amount does not match the payment intent")
	ErrNothingToPayOnline   = errors.New("nothing left to pay online")
)

// GatewayStatus is the gateway's view of an order.
type GatewayStatus struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	GrossAmount       string
}

// PaymentGateway creates hosted payments and reports their status.
type PaymentGateway interface {
	CreateTransaction(orderID string, amount int64, description string) (token, redirectURL string, err error)
	TransactionStatus(orderID string) (*GatewayStatus, error)
}

// MidtransGateway is PaymentGateway on Midtrans Snap and Core API.
type MidtransGateway struct {
	snap snap.Client
	core coreapi.Client
}

func NewMidtransGateway(cfg *config.MidtransConfig) *MidtransGateway {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}
	g := &MidtransGateway{}
	g.snap.New(cfg.ServerKey, env)
	g.core.New(cfg.ServerKey, env)
	return g
}

func (g *MidtransGateway) CreateTransaction(orderID string, amount int64, description string) (string, string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       orderID,
				Price:    amount,
				Qty:      1,
				Name:     truncate(description, 50),
				Category: "Laundry",
			},
		},
	}

	resp, mErr := g.snap.CreateTransaction(req)
	if mErr != nil {
		return "", "", mErr
	}
	return resp.Token, resp.RedirectURL, nil
}

func (g *MidtransGateway) TransactionStatus(orderID string) (*GatewayStatus, error) {
	resp, mErr := g.core.CheckTransaction(orderID)
	if mErr != nil {
		return nil, mErr
	}
	return &GatewayStatus{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		GrossAmount:       resp.GrossAmount,
	}, nil
}

// PaymentIntent is a pending online checkout, kept in redis until the gateway
// reports a final status.
type PaymentIntent struct {
	OrderID   string          `json:"orderId"`
	Request   CheckoutRequest `json:"request"`
	DueAmount int64           `json:"dueAmount"`
	ActorID   string          `json:"actorId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OnlinePayment is returned to the client to complete payment at the gateway.
type OnlinePayment struct {
	OrderID     string             `json:"orderId"`
	Token       string             `json:"token"`
	RedirectURL string             `json:"redirectUrl"`
	QRImage     string             `json:"qrImage"`
	DueAmount   int64              `json:"dueAmount"`
	Preview     *SettlementPreview `json:"preview"`
}

// Notification is the payload Midtrans posts to the notification URL.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id" validate:"required"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

// NotificationResult says what HandleNotification did with a notification.
type NotificationResult struct {
	OrderID  string          `json:"orderId"`
	Status   string          `json:"status"`
	Checkout *CheckoutResult `json:"checkout,omitempty"`
}

const (
	NotificationPaid           = "paid"
	NotificationPending        = "pending"
	NotificationDropped        = "dropped"
	NotificationIgnored        = "ignored"
	NotificationInProgress     = "in_progress"
	NotificationReconciliation = "reconciliation"
)

// GatewayService turns a settled online payment into a checkout with method
// online. It never retries or refunds at the gateway.
type GatewayService struct {
	checkout *CheckoutService
	gateway  PaymentGateway
	redis    *redis.Client
	recorder ReconciliationRecorder
	audit    *audit.Logger
	cfg      *config.MidtransConfig
	now      func() time.Time
	newID    func() string
	lockTTL  time.Duration
	qrSize   int
	system   models.Actor
}

func NewGatewayService(checkout *CheckoutService, gateway PaymentGateway, rdb *redis.Client,
	recorder ReconciliationRecorder, cfg *config.MidtransConfig, auditLogger *audit.Logger) *GatewayService {
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &GatewayService{
		checkout: checkout,
		gateway:  gateway,
		redis:    rdb,
		recorder: recorder,
		audit:    auditLogger,
		cfg:      cfg,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		lockTTL:  time.Minute,
		qrSize:   256,
		system:   models.SystemActor("midtrans"),
	}
}

func (s *GatewayService) intentKey(orderID string) string {
	return s.cfg.IntentPrefix + orderID
}

func (s *GatewayService) lockKey(orderID string) string {
	return s.cfg.IntentPrefix + orderID + ":lock"
}

// CreatePayment previews the checkout, opens a hosted payment for the amount
// due and remembers the checkout until the gateway calls back.
func (s *GatewayService) CreatePayment(ctx context.Context, req CheckoutRequest, actor models.Actor) (*OnlinePayment, error) {
	if s.gateway == nil || s.redis == nil {
		return nil, ErrGatewayUnavailable
	}

	req.PaymentMethod = models.PaymentMethodOnline
	req.PaidAmount = 0
	preview, err := s.checkout.Preview(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	due := preview.Settlement.DueAmount
	if due <= 0 {
		return nil, ErrNothingToPayOnline
	}

	// The gateway settles as the system actor, so the decisions made for
	// this actor are pinned on the stored request.
	mode := string(preview.RoundingMode)
	consent := preview.CustomerConsent
	req.RoundingMode = &mode
	req.CustomerConsent = &consent
	req.SaveChangeAsBalance = nil

	orderID := fmt.Sprintf("%s-%s", s.cfg.OrderPrefix, s.newID())
	description := fmt.Sprintf("Laundry %s", strings.Join(req.BillIDs, ","))
	token, redirectURL, err := s.gateway.CreateTransaction(orderID, due, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway transaction: %w", err)
	}

	intent := PaymentIntent{
		OrderID:   orderID,
		Request:   req,
		DueAmount: due,
		ActorID:   actor.ID,
		CreatedAt: s.now(),
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, s.intentKey(orderID), string(data), s.cfg.IntentTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store payment intent: %w", err)
	}

	qrImage, err := qrPNG(redirectURL, s.qrSize)
	if err != nil {
		return nil, err
	}

	log.Printf("[GATEWAY] order %s opened for student %s: %d", orderID, req.StudentID, due)
	s.audit.LogOperation(orderID, req.StudentID, "GATEWAY_PAYMENT_CREATED", due, map[string]any{
		"bill_ids": req.BillIDs,
		"actor_id": actor.ID,
	})

	return &OnlinePayment{
		OrderID:     orderID,
		Token:       token,
		RedirectURL: redirectURL,
		QRImage:     qrImage,
		DueAmount:   due,
		Preview:     preview,
	}, nil
}

// HandleNotification verifies n, confirms the status with the gateway and
// completes or drops the matching intent. Notifications for unknown orders
// are ignored. An error means the gateway should deliver n again.
func (s *GatewayService) HandleNotification(ctx context.Context, n Notification) (*NotificationResult, error) {
	if s.gateway == nil || s.redis == nil {
		return nil, ErrGatewayUnavailable
	}
	if !VerifySignature(n, s.cfg.ServerKey) {
		return nil, ErrInvalidSignature
	}
	result := &NotificationResult{OrderID: n.OrderID}

	locked, err := s.redis.SetNX(ctx, s.lockKey(n.OrderID), "1", s.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !locked {
		result.Status = NotificationInProgress
		return result, nil
	}
	defer s.redis.Del(context.Background(), s.lockKey(n.OrderID))

	intent, err := s.loadIntent(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		log.Printf("[GATEWAY] notification for unknown order %s ignored", n.OrderID)
		result.Status = NotificationIgnored
		return result, nil
	}

	status, err := s.gateway.TransactionStatus(n.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order %s: %w", n.OrderID, err)
	}

	switch strings.ToLower(status.TransactionStatus) {
	case "settlement":
		return s.settle(ctx, intent, status, result)
	case "capture":
		if strings.ToLower(status.FraudStatus) == "accept" {
			return s.settle(ctx, intent, status, result)
		}
		result.Status = NotificationPending
		return result, nil
	case "pending":
		result.Status = NotificationPending
		return result, nil
	case "deny", "cancel", "expire", "failure":
		if err := s.redis.Del(ctx, s.intentKey(n.OrderID)).Err(); err != nil {
			return nil, err
		}
		log.Printf("[GATEWAY] order %s %s, intent dropped", n.OrderID, status.TransactionStatus)
		result.Status = NotificationDropped
		return result, nil
	default:
		result.Status = NotificationIgnored
		return result, nil
	}
}

func (s *GatewayService) settle(ctx context.Context, intent *PaymentIntent, status *GatewayStatus, result *NotificationResult) (*NotificationResult, error) {
	gross, err := parseGrossAmount(status.GrossAmount)
	if err != nil || gross != intent.DueAmount {
		return s.reconcile(ctx, intent, result, nil, fmt.Errorf("%w: intent %d, gateway %q",
			ErrGatewayAmountChanged, intent.DueAmount, status.GrossAmount))
	}

	req := intent.Request
	req.CheckoutID = intent.OrderID
	req.PaymentMethod = models.PaymentMethodOnline
	req.PaidAmount = intent.DueAmount

	checkout, err := s.checkout.Checkout(ctx, req, s.system)
	if err != nil {
		if errors.Is(err, ErrReconciliationRequired) || IsDomainError(err) {
			return s.reconcile(ctx, intent, result, checkout, err)
		}
		return nil, err
	}

	if err := s.redis.Del(ctx, s.intentKey(intent.OrderID)).Err(); err != nil {
		log.Printf("[GATEWAY] failed to remove intent %s: %v", intent.OrderID, err)
	}
	result.Status = NotificationPaid
	result.Checkout = checkout
	return result, nil
}

// reconcile files a case for money the gateway collected but no checkout
// settled, then drops the intent so the notification is not replayed.
func (s *GatewayService) reconcile(ctx context.Context, intent *PaymentIntent, result *NotificationResult,
	checkout *CheckoutResult, cause error) (*NotificationResult, error) {
	var recErr *ReconciliationRequiredError
	if !errors.As(cause, &recErr) {
		c := &ReconciliationCase{
			CheckoutID: intent.OrderID,
			StudentID:  intent.Request.StudentID,
			BillIDs:    intent.Request.BillIDs,
			Reason:     "gateway settled but checkout failed: " + cause.Error(),
			CreatedAt:  s.now(),
		}
		if checkout != nil {
			for _, txn := range checkout.Transactions {
				c.TransactionIDs = append(c.TransactionIDs, txn.ID)
			}
		}
		if s.recorder != nil {
			if err := s.recorder.Record(ctx, c); err != nil {
				log.Printf("[GATEWAY] failed to queue reconciliation for %s: %v", intent.OrderID, err)
			}
		} else {
			s.audit.LogReconciliation(c.CheckoutID, c.StudentID, intent.DueAmount, c)
		}
	}

	if err := s.redis.Del(ctx, s.intentKey(intent.OrderID)).Err(); err != nil {
		log.Printf("[GATEWAY] failed to remove intent %s: %v", intent.OrderID, err)
	}
	result.Status = NotificationReconciliation
	result.Checkout = checkout
	return result, nil
}

func (s *GatewayService) loadIntent(ctx context.Context, orderID string) (*PaymentIntent, error) {
	data, err := s.redis.Get(ctx, s.intentKey(orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var intent PaymentIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("corrupt payment intent %s: %w", orderID, err)
	}
	return &intent, nil
}

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server key).
func VerifySignature(n Notification, serverKey string) bool {
	if n.SignatureKey == "" || serverKey == "" {
		return false
	}
	want := SignNotification(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	got := strings.ToLower(n.SignatureKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// SignNotification computes the signature Midtrans attaches to a notification.
func SignNotification(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func parseGrossAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

func qrPNG(content string, size int) (string, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(size)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
