package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sponsorwall/backend/internal/auth"
	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/http/handlers"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/payments"
	"github.com/sponsorwall/backend/internal/repositories/sqlite"
	"github.com/sponsorwall/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type envelope struct {
	OK        bool            `json:"ok"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	RequestID string          `json:"request_id"`
}

type testAPI struct {
	app   *fiber.App
	token string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := db.Store()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:          testSecret,
		CORSAllowOrigins:   []string{"*"},
		RateLimitPerMinute: 1000,
	}
	m := metrics.New()
	publisher := events.NewRedisPublisher(rdb, log)
	provider := payments.NewStripeProvider("", "", log)

	layouts := services.NewLayoutService(store, publisher, m, log)
	entries := services.NewSponsorshipService(store, layouts, publisher, log)
	campaigns := services.NewCampaignService(store, layouts, cfg.StripeConfigured(), log)
	paymentSvc := services.NewPaymentService(store, entries, layouts, provider,
		payments.NewRedisEventLedger(rdb, time.Hour), cfg.StripeConfigured(), publisher, m, log)

	app := fiber.New()
	SetupRouter(app, cfg, log, rdb, m,
		handlers.NewCampaignHandler(campaigns, layouts, entries, log),
		handlers.NewLayoutHandler(campaigns, layouts, log),
		handlers.NewSponsorshipHandler(entries, log),
		handlers.NewPaymentHandler(paymentSvc, log),
		handlers.NewWSHub(events.NewRedisSubscriber(rdb, log), log),
	)

	token, err := auth.GenerateJWT(testSecret, uuid.New(), "coach@club.example", time.Hour)
	require.NoError(t, err)
	return &testAPI{app: app, token: token}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func sponsorBody(position string, amount int) map[string]any {
	return map[string]any{
		"position_id":    position,
		"sponsor_name":   "Acme Bakery",
		"sponsor_email":  "hello@acme.example",
		"sponsor_type":   "text",
		"amount":         amount,
		"payment_method": "cash",
	}
}

func TestSponsorWallFlow(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, fiber.MethodPost, "/api/v1/campaigns", api.token, map[string]any{
		"title":                  "Team Jerseys",
		"campaign_type":          "fixed",
		"pricing_config":         map[string]any{"fixedPrice": 50},
		"allow_offline_payments": true,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var campaign struct {
		ID   uuid.UUID `json:"id"`
		Slug string    `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &campaign))
	assert.Equal(t, "team-jerseys", campaign.Slug)
	base := "/api/v1/campaigns/" + campaign.ID.String()

	status, env = api.do(t, fiber.MethodPost, base+"/layout", api.token, map[string]any{
		"layout_type": "grid", "total_positions": 20, "columns": 5,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, _ = api.do(t, fiber.MethodGet, base+"/layout", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = api.do(t, fiber.MethodPost, base+"/sponsorships", "", sponsorBody("R1C1", 40))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "amount_mismatch", env.Code)

	status, env = api.do(t, fiber.MethodPost, base+"/sponsorships", "", sponsorBody("R1C1", 50))
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var entry struct {
		ID            uuid.UUID `json:"id"`
		PaymentStatus string    `json:"payment_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "pending", entry.PaymentStatus)

	status, env = api.do(t, fiber.MethodPost, base+"/sponsorships", "", sponsorBody("R1C1", 50))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "position_unavailable", env.Code)
	assert.Equal(t, "this spot was just taken, please pick another", env.Error)

	status, env = api.do(t, fiber.MethodPost, "/api/v1/sponsorships/"+entry.ID.String()+"/mark-paid", api.token, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)

	status, env = api.do(t, fiber.MethodPost, "/api/v1/sponsorships/"+entry.ID.String()+"/mark-paid", api.token, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "invalid_status_transition", env.Code)

	status, env = api.do(t, fiber.MethodGet, "/api/v1/public/campaigns/team-jerseys", "", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var page struct {
		Available int              `json:"available"`
		Sponsors  []map[string]any `json:"sponsors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 19, page.Available)
	require.Len(t, page.Sponsors, 1)
	assert.Equal(t, "Acme Bakery", page.Sponsors[0]["sponsor_name"])
	assert.NotContains(t, page.Sponsors[0], "sponsor_email")

	status, env = api.do(t, fiber.MethodPut, base+"/pricing", api.token, map[string]any{
		"campaign_type": "fixed", "pricing_config": map[string]any{"fixedPrice": 10},
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "sponsors_exist", env.Code)

	status, _ = api.do(t, fiber.MethodPost, base+"/close", api.token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = api.do(t, fiber.MethodPost, base+"/sponsorships", "", sponsorBody("R1C2", 50))
	assert.Equal(t, fiber.StatusGone, status)
	assert.Equal(t, "campaign_closed", env.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, fiber.MethodGet, "/api/v1/campaigns", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", env.Code)

	other, err := auth.GenerateJWT(testSecret, uuid.New(), "", time.Hour)
	require.NoError(t, err)
	status, env = api.do(t, fiber.MethodPost, "/api/v1/campaigns", api.token, map[string]any{
		"title":                  "Bake Sale",
		"campaign_type":          "pay-what-you-want",
		"pricing_config":         map[string]any{"minimumAmount": 5},
		"allow_offline_payments": true,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var campaign struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &campaign))

	status, env = api.do(t, fiber.MethodGet, "/api/v1/campaigns/"+campaign.ID.String(), other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "forbidden", env.Code)
}

func TestCardPaymentsUnavailableWithoutProvider(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, fiber.MethodPost, "/api/v1/campaigns", api.token, map[string]any{
		"title":                  "Card Only",
		"campaign_type":          "fixed",
		"pricing_config":         map[string]any{"fixedPrice": 50},
		"enable_stripe_payments": true,
	})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "payment_provider_not_configured", env.Code)

	status, env = api.do(t, fiber.MethodPost, "/api/v1/campaigns/"+uuid.NewString()+"/payment-intents", "", sponsorBody("R1C1", 50))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "payment_provider_not_configured", env.Code)

	status, env = api.do(t, fiber.MethodPost, "/api/v1/payments/webhook", "", map[string]any{"id": "evt_1"})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "payment_provider_not_configured", env.Code)
}

func TestBadInputAndHealth(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, fiber.MethodGet, "/api/v1/campaigns/not-a-uuid/layout", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", env.Code)

	status, env = api.do(t, fiber.MethodPost, "/api/v1/campaigns", api.token, map[string]any{
		"title": "Raffle", "campaign_type": "fixed", "pricing_config": map[string]any{"fixedPrice": 0},
		"allow_offline_payments": true,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_pricing_config", env.Code)

	status, _ = api.do(t, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = api.do(t, fiber.MethodGet, "/api/v1/meta/size-tiers", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.OK)

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "sponsorwall_api_requests_total")
}
