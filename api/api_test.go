package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/internal/ratelimit"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	m.Run()
}

func testAPI(c *qt.C) *API {
	api := New(&Config{
		Host:       "127.0.0.1",
		Port:       0,
		Secret:     "test-secret",
		Limiter:    ratelimit.New(nil),
		RateLimit:  3,
		RateWindow: time.Minute,
	})
	c.Assert(api, qt.IsNotNil)
	return api
}

func TestPingEndpoint(t *testing.T) {
	c := qt.New(t)
	router := testAPI(c).initRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Equals, ".")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := qt.New(t)
	router := testAPI(c).initRouter()

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/payments/intent"},
		{http.MethodGet, "/payments"},
		{http.MethodPost, "/subscriptions"},
		{http.MethodGet, "/subscriptions/sub_1"},
		{http.MethodDelete, "/subscriptions/sub_1"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized,
			qt.Commentf("%s %s", route.method, route.path))
	}
}

func TestWebhookWithoutServiceUnavailable(t *testing.T) {
	c := qt.New(t)
	router := testAPI(c).initRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/webhook", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusServiceUnavailable)
}

func TestRateLimitMiddleware(t *testing.T) {
	c := qt.New(t)
	api := testAPI(c)

	handler := api.rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments/intent", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		rec := request()
		c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("request %d", i+1))
		c.Assert(rec.Header().Get("X-RateLimit-Limit"), qt.Equals, "3")
	}

	rec := request()
	c.Assert(rec.Code, qt.Equals, http.StatusTooManyRequests)
	c.Assert(rec.Header().Get("X-RateLimit-Remaining"), qt.Equals, "0")
	c.Assert(rec.Header().Get("Retry-After"), qt.Not(qt.Equals), "")

	// a different client is unaffected
	req := httptest.NewRequest(http.MethodPost, "/payments/intent", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("User-Agent", "test-agent")
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, req)
	c.Assert(other.Code, qt.Equals, http.StatusOK)
}

func TestClientKey(t *testing.T) {
	c := qt.New(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:5555"
	req.Header.Set("User-Agent", "agent")
	c.Assert(clientKey(req), qt.Equals, "192.168.1.10|agent")

	req.Header.Set("X-Real-IP", "1.2.3.4")
	c.Assert(clientKey(req), qt.Equals, "1.2.3.4|agent")

	// X-Forwarded-For wins, first entry only
	req.Header.Set("X-Forwarded-For", "5.6.7.8, 9.10.11.12")
	c.Assert(clientKey(req), qt.Equals, "5.6.7.8|agent")

	// long user agents are truncated
	req.Header.Set("User-Agent", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	c.Assert(clientKey(req), qt.Equals, "5.6.7.8|aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	c := qt.New(t)
	api := testAPI(c)
	router := api.initRouter()

	login, err := api.buildLoginResponse("test@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(login.Token, qt.Not(qt.Equals), "")

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Contains, "token")
}
