package routes

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paybaba/internal/handlers"
	"paybaba/internal/middleware"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/signing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client, err := gateway.NewClient(gateway.Config{PartnerID: "010001"}, signing.NewSigner(key, &key.PublicKey))
	require.NoError(t, err)

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Health:       handlers.NewHealthHandler(nil),
		Gateway:      handlers.NewGatewayHandler(client, nil, time.UTC),
		Payments:     handlers.NewPaymentHandler(client, nil, ""),
		Transactions: handlers.NewTransactionHandler(nil, time.UTC),
		CreditScores: handlers.NewCreditScoreHandler(nil),
		Alerts:       handlers.NewAlertHandler(nil),
	}, middleware.NewAuthMiddleware("secret"), "/api/gateway/callback")
	return app
}

func TestSetupRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, path := range []string{"/api/credit-score", "/api/alerts", "/api/credit-score/history"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestSetupRoutes_CallbackSkipsBearerAuth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/gateway/callback", strings.NewReader(`{"merchantTradeNo":"T-1"}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "SIGNATURE_MISMATCH")
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.MerchantClaims{
		MerchantID: "m-1",
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestSetupRoutes_RebuildNeedsAdmin(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/aggregates/rebuild?from=yesterday&to=2024-04-30", nil)
	req.Header.Set("Authorization", bearer(t, "merchant"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Admins reach the handler, which rejects the malformed date.
	req = httptest.NewRequest("POST", "/api/aggregates/rebuild?from=yesterday&to=2024-04-30", nil)
	req.Header.Set("Authorization", bearer(t, middleware.RoleAdmin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
