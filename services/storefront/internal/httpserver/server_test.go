package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/liontv_shop/pkg/authclient"
	middleware "github.com/Skotchmaster/liontv_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/liontv_shop/pkg/middleware/csrf"
	"github.com/Skotchmaster/liontv_shop/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/liontv_shop/pkg/tokens"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/notify"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/repo"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/transport"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	cookieName = "app_session_id"
	ownerID    = "owner-1"
)

var secret = []byte("test-jwt-secret")

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *fakeNotifier) Enqueue(msg notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return true
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memCounter) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

type testEnv struct {
	E        *echo.Echo
	Gateway  *repo.Gateway
	Notifier *fakeNotifier
}

type envOptions struct {
	unavailable bool
	limiter     *ratelimit.Limiter
	csrf        echo.MiddlewareFunc
	oauthURL    string
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	var g *repo.Gateway
	if opts.unavailable {
		g = repo.NewGateway("", nil, repo.Options{OwnerOpenID: ownerID})
	} else {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
		require.NoError(t, repo.Migrate(db))
		g = repo.NewGatewayWithDB(db, repo.Options{OwnerOpenID: ownerID})

		require.NoError(t, g.UpsertUser(context.Background(), repo.UserUpsert{OpenID: ownerID}))
		require.NoError(t, g.UpsertUser(context.Background(), repo.UserUpsert{OpenID: "buyer-1"}))
	}

	n := &fakeNotifier{}
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler

	Register(e, &Deps{
		CheckoutHandler: &CheckoutHTTP{Svc: service.NewCheckoutService(g, n, nil)},
		AuthHandler: &AuthHTTP{
			Svc: &service.AuthService{
				Users:     g,
				OAuth:     authclient.NewClient(opts.oauthURL, "liontv"),
				JWTSecret: secret,
				AppID:     "liontv",
			},
			CookieName: cookieName,
		},
		CatalogHandler:  &CatalogHTTP{},
		Session:         middleware.NewSessionMiddleware(secret, cookieName, g.RoleOf),
		CheckoutLimiter: opts.limiter,
		CSRF:            opts.csrf,
		Ready:           g.Available,
	})

	return &testEnv{E: e, Gateway: g, Notifier: n}
}

func sessionCookie(t *testing.T, openID string) *http.Cookie {
	t.Helper()
	tok, err := tokens.SignSession(openID, "liontv", "Tester", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: tok}
}

func (env *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) transport.ErrorBody {
	t.Helper()
	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func janeDoe() map[string]any {
	return map[string]any{
		"customerName":  "Jane Doe",
		"customerEmail": "jane@example.com",
		"customerPhone": "555-0100",
		"items": []map[string]any{
			{"planName": "Monthly", "planPrice": 999, "quantity": 2},
			{"planName": "Annual", "planPrice": 7999},
		},
	}
}

func createOrder(t *testing.T, env *testEnv) transport.CreateOrderResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", janeDoe())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp transport.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)

	down := newTestEnv(t, envOptions{unavailable: true})
	assert.Equal(t, http.StatusOK, down.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestCreateOrderAndGetOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createOrder(t, env)
	assert.True(t, created.Success)
	assert.Equal(t, int64(9997), created.TotalPrice)
	assert.NotEmpty(t, created.Message)
	assert.Len(t, env.Notifier.msgs, 1)

	rec := env.do(t, http.MethodGet, "/api/trpc/checkout.getOrder?orderId="+itoa(created.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got transport.GetOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.OrderID, got.Order.ID)
	assert.Equal(t, int64(9997), got.Order.TotalPrice)
	assert.EqualValues(t, "pending", got.Order.Status)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Monthly", got.Items[0].PlanName)
	assert.Equal(t, int64(1), got.Items[1].Quantity)
}

func TestCreateOrder_RecordsSessionUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", janeDoe(), sessionCookie(t, "buyer-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transport.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	order, err := env.Gateway.GetOrderByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
}

func TestCreateOrder_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	body := janeDoe()
	body["customerEmail"] = "nope"
	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "validation", e.Code)
	assert.Contains(t, e.Message, "customerEmail")

	body = janeDoe()
	body["items"] = []any{}
	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Code)

	body = janeDoe()
	body["items"] = []map[string]any{{"planName": "Annual"}}
	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e = decodeError(t, rec)
	assert.Equal(t, "validation", e.Code)
	assert.Contains(t, e.Message, "planPrice")

	db, ok := env.Gateway.Connect(context.Background())
	require.True(t, ok)
	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Empty(t, env.Notifier.msgs)

	req := httptest.NewRequest(http.MethodPost, "/api/trpc/checkout.createOrder", bytes.NewBufferString("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	raw := httptest.NewRecorder()
	env.E.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	down := newTestEnv(t, envOptions{unavailable: true})
	rec = down.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", janeDoe())
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeError(t, rec).Code)
	assert.Empty(t, down.Notifier.msgs)
}

func TestCreateOrder_RateLimited(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{limiter: &ratelimit.Limiter{
		Store:  &memCounter{},
		Prefix: "checkout",
		Limit:  1,
		Window: time.Minute,
	}})

	createOrder(t, env)
	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", janeDoe())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", decodeError(t, rec).Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestGetOrder_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/trpc/checkout.getOrder?orderId=999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/trpc/checkout.getOrder?orderId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/trpc/checkout.getOrder", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Code)

	down := newTestEnv(t, envOptions{unavailable: true})
	rec = down.do(t, http.MethodGet, "/api/trpc/checkout.getOrder?orderId=1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdatePaymentLink(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createOrder(t, env)
	body := map[string]any{"orderId": created.OrderID, "paymentLink": "https://pay.example/o/1"}

	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.updatePaymentLink", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.updatePaymentLink", body, sessionCookie(t, "buyer-1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Code)

	admin := sessionCookie(t, ownerID)
	for _, link := range []string{"not a url", "javascript:alert(1)"} {
		bad := map[string]any{"orderId": created.OrderID, "paymentLink": link}
		rec = env.do(t, http.MethodPost, "/api/trpc/checkout.updatePaymentLink", bad, admin)
		require.Equal(t, http.StatusBadRequest, rec.Code, link)
	}

	missing := map[string]any{"orderId": created.OrderID + 100, "paymentLink": "https://pay.example/o/1"}
	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.updatePaymentLink", missing, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.updatePaymentLink", body, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	order, err := env.Gateway.GetOrderByID(context.Background(), created.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order.PaymentLink)
	assert.Equal(t, "https://pay.example/o/1", *order.PaymentLink)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	created := createOrder(t, env)
	admin := sessionCookie(t, ownerID)

	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.updateStatus",
		map[string]any{"orderId": created.OrderID, "status": "confirmed"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.EqualValues(t, "confirmed", order.Status)

	rec = env.do(t, http.MethodPost, "/api/trpc/checkout.updateStatus",
		map[string]any{"orderId": created.OrderID, "status": "pending"}, admin)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Code)
}

func TestAuthMeAndLogout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/trpc/auth.me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/trpc/auth.me", nil, sessionCookie(t, ownerID))
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, ownerID, user.OpenID)
	assert.Equal(t, models.RoleAdmin, user.Role)

	rec = env.do(t, http.MethodGet, "/api/trpc/auth.me", nil, &http.Cookie{Name: cookieName, Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/trpc/auth.logout", nil, sessionCookie(t, ownerID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthMe_UnavailableStore(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{unavailable: true})
	rec := env.do(t, http.MethodGet, "/api/trpc/auth.me", nil, sessionCookie(t, ownerID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestCatalogPlans(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/api/trpc/catalog.plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plans []transport.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 4)
	assert.Equal(t, "Monthly", plans[0].Name)
}

func TestOAuthCallback(t *testing.T) {
	t.Parallel()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/token":
			_ = json.NewEncoder(w).Encode(authclient.TokenResponse{AccessToken: "provider-token"})
		case "/oauth/userinfo":
			_ = json.NewEncoder(w).Encode(authclient.UserInfo{OpenID: "open-77", Name: "Jane", Email: "jane@example.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(provider.Close)

	env := newTestEnv(t, envOptions{oauthURL: provider.URL})
	state := base64.StdEncoding.EncodeToString([]byte("https://shop.example/api/oauth/callback"))

	rec := env.do(t, http.MethodGet, "/api/oauth/callback?code=abc&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	claims, err := tokens.SessionClaimsFromToken(cookies[0].Value, secret)
	require.NoError(t, err)
	assert.Equal(t, "open-77", claims.Subject)

	user, err := env.Gateway.GetUserByOpenID(context.Background(), "open-77")
	require.NoError(t, err)
	require.NotNil(t, user)

	rec = env.do(t, http.MethodGet, "/api/oauth/callback", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_CSRF(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, envOptions{csrf: csrf.Middleware(csrf.DefaultConfig())})

	rec := env.do(t, http.MethodPost, "/api/trpc/checkout.createOrder", janeDoe())
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/trpc/catalog.plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0]

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(janeDoe()))
	req := httptest.NewRequest(http.MethodPost, "/api/trpc/checkout.createOrder", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Origin", "http://"+req.Host)
	req.Header.Set("X-CSRF-Token", token.Value)
	req.AddCookie(token)
	rec = httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
