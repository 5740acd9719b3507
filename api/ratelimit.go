package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/floatpay/payments-backend/errors"
)

// rateLimitMiddleware throttles payment creation per client within a fixed
// window. Denied requests get a 429 with a Retry-After hint; allowed requests
// carry the usual X-RateLimit headers.
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !a.limiter.Allow(r.Context(), key, a.rateLimit, a.rateWindow) {
			retryAfter := a.limiter.ResetAfter(r.Context(), key)
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(a.rateLimit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			errors.ErrTooManyRequests.Write(w)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(a.rateLimit))
		w.Header().Set("X-RateLimit-Remaining",
			strconv.Itoa(a.limiter.Remaining(r.Context(), key, a.rateLimit)))
		next.ServeHTTP(w, r)
	})
}

// clientKey derives the limiter key for a request. The client IP is taken
// from the usual proxy headers, falling back to the connection address, and
// combined with a truncated User-Agent so distinct clients behind one NAT are
// less likely to share a bucket.
func clientKey(r *http.Request) string {
	ip := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// the first entry is the originating client
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	} else if real := r.Header.Get("X-Real-IP"); real != "" {
		ip = strings.TrimSpace(real)
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}

	agent := r.UserAgent()
	if len(agent) > 32 {
		agent = agent[:32]
	}
	return fmt.Sprintf("%s|%s", ip, agent)
}
