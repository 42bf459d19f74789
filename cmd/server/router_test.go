package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/handlers"
	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/services"
	"github.com/laundrypay/backend/internal/store"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	viper.Reset()
	viper.Set("jwt.secret_key", "router-secret")
	t.Cleanup(viper.Reset)

	quiet := audit.NewLoggerTo(log.New(io.Discard, "", 0), nil)
	mem := store.NewMemoryStore()
	mem.PutBill(models.Bill{ID: "b-1", StudentID: "s-1", TotalPrice: 17300, Status: models.BillStatusApproved})

	ledger := services.NewLedgerService(mem, quiet)
	queue := services.NewReconciliationQueue(nil, &config.CheckoutConfig{ReconciliationKey: "k", ReconciliationListMax: 10}, quiet)
	checkout := services.NewCheckoutService(ledger, mem, config.DefaultRoundingSettings(), queue, quiet)
	gateway := services.NewGatewayService(checkout, nil, nil, queue, &config.MidtransConfig{}, quiet)

	return newRouter(routes{
		wadiah:     handlers.NewWadiahHandler(ledger),
		checkout:   handlers.NewCheckoutHandler(checkout, queue),
		gateway:    handlers.NewGatewayHandler(gateway),
		swaggerURL: "http://localhost:8080/swagger/doc.json",
	})
}

func bearer(t *testing.T, userID, role string, studentIDs ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if len(studentIDs) > 0 {
		claims["student_ids"] = studentIDs
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("router-secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		auth       string
		body       string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"balance needs token", http.MethodGet, "/api/v1/students/s-1/balance", "", "", http.StatusUnauthorized},
		{"parent reads balance", http.MethodGet, "/api/v1/students/s-1/balance", bearer(t, "p-1", models.RoleParent, "s-1"), "", http.StatusOK},
		{"parent cannot read another student", http.MethodGet, "/api/v1/students/s-2/balance", bearer(t, "p-1", models.RoleParent, "s-1"), "", http.StatusForbidden},
		{"parent without students", http.MethodGet, "/api/v1/students/s-1/balance", bearer(t, "p-1", models.RoleParent), "", http.StatusForbidden},
		{"parent cannot deposit", http.MethodPost, "/api/v1/students/s-1/transactions", bearer(t, "p-1", models.RoleParent), `{"kind":"deposit","amount":1000}`, http.StatusForbidden},
		{"cashier deposits", http.MethodPost, "/api/v1/students/s-1/transactions", bearer(t, "c-1", models.RoleCashier), `{"kind":"deposit","amount":1000}`, http.StatusCreated},
		{"parent previews", http.MethodPost, "/api/v1/checkout/preview", bearer(t, "p-1", models.RoleParent, "s-1"), `{"studentId":"s-1","billIds":["b-1"],"paidAmount":20000}`, http.StatusOK},
		{"parent cannot check out at the counter", http.MethodPost, "/api/v1/checkout", bearer(t, "p-1", models.RoleParent), `{"studentId":"s-1","billIds":["b-1"],"paidAmount":20000}`, http.StatusForbidden},
		{"reconciliation is staff only", http.MethodGet, "/api/v1/reconciliation", bearer(t, "p-1", models.RoleParent), "", http.StatusForbidden},
		{"admin lists reconciliation", http.MethodGet, "/api/v1/reconciliation", bearer(t, "a-1", models.RoleAdmin), "", http.StatusOK},
		{"notification skips bearer auth", http.MethodPost, "/api/v1/payments/midtrans/notification", "", `{"order_id":"LNDRY-1"}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}
