// Package api provides the HTTP API for the payments backend. It exposes
// payment intent and subscription operations behind JWT authentication, plus
// a public Stripe webhook endpoint.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/internal/ratelimit"
	"github.com/floatpay/payments-backend/stripe"
)

type Config struct {
	Host   string
	Port   int
	Secret string
	DB     *db.MongoStorage
	Stripe *stripe.Service
	// Limiter throttles payment creation per client. If nil, a
	// memory-backed limiter is used.
	Limiter *ratelimit.Limiter
	// RateLimit is the number of payment creation requests allowed per
	// client per RateWindow.
	RateLimit  int
	RateWindow time.Duration
}

// API type represents the API HTTP server with JWT authentication
// capabilities.
type API struct {
	db         *db.MongoStorage
	auth       *jwtauth.JWTAuth
	host       string
	port       int
	router     *chi.Mux
	stripe     *stripe.Service
	secret     string
	limiter    *ratelimit.Limiter
	rateLimit  int
	rateWindow time.Duration
}

// New creates a new API HTTP server. It does not start the server. Use
// Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	limiter := conf.Limiter
	if limiter == nil {
		limiter = ratelimit.New(nil)
	}
	rateLimit := conf.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	rateWindow := conf.RateWindow
	if rateWindow <= 0 {
		rateWindow = time.Minute
	}

	return &API{
		db:         conf.DB,
		auth:       jwtauth.New("HS256", []byte(conf.Secret), nil),
		host:       conf.Host,
		port:       conf.Port,
		stripe:     conf.Stripe,
		secret:     conf.Secret,
		limiter:    limiter,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	// protected routes
	r.Group(func(r chi.Router) {
		// seek, verify and validate JWT tokens
		r.Use(jwtauth.Verifier(a.auth))
		// handle valid JWT tokens
		r.Use(a.authenticator)
		// refresh the token
		log.Infow("new route", "method", "POST", "path", authRefreshTokenEndpoint)
		r.Post(authRefreshTokenEndpoint, a.refreshTokenHandler)
		// list the customer's payments
		log.Infow("new route", "method", "GET", "path", paymentsEndpoint)
		r.Get(paymentsEndpoint, a.paymentsListHandler)
		// get a payment intent status
		log.Infow("new route", "method", "GET", "path", paymentIntentInfoEndpoint)
		r.Get(paymentIntentInfoEndpoint, a.paymentIntentInfoHandler)
		// list the customer's subscriptions
		log.Infow("new route", "method", "GET", "path", subscriptionsEndpoint)
		r.Get(subscriptionsEndpoint, a.subscriptionsListHandler)
		// get a subscription
		log.Infow("new route", "method", "GET", "path", subscriptionEndpoint)
		r.Get(subscriptionEndpoint, a.subscriptionInfoHandler)
		// update a subscription
		log.Infow("new route", "method", "PUT", "path", subscriptionEndpoint)
		r.Put(subscriptionEndpoint, a.updateSubscriptionHandler)
		// cancel a subscription
		log.Infow("new route", "method", "DELETE", "path", subscriptionEndpoint)
		r.Delete(subscriptionEndpoint, a.cancelSubscriptionHandler)

		// payment creation endpoints are additionally rate limited per
		// client
		r.Group(func(r chi.Router) {
			r.Use(a.rateLimitMiddleware)
			// create a payment intent
			log.Infow("new route", "method", "POST", "path", paymentIntentEndpoint)
			r.Post(paymentIntentEndpoint, a.createPaymentIntentHandler)
			// create a subscription
			log.Infow("new route", "method", "POST", "path", subscriptionsEndpoint)
			r.Post(subscriptionsEndpoint, a.createSubscriptionHandler)
		})
	})

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Warnw("failed to write ping response", "error", err)
			}
		})
		// handle stripe webhook
		log.Infow("new route", "method", "POST", "path", paymentsWebhookEndpoint)
		r.Post(paymentsWebhookEndpoint, a.handleWebhook)
	})
	a.router = r
	return r
}
