package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// visitor holds a rate limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limits configures a RateLimiter. Rates are requests per minute.
type Limits struct {
	GlobalPerMinute float64
	GlobalBurst     int
	RoutePerMinute  float64
	RouteBurst      int
	IdleTimeout     time.Duration
	// TrustedProxies lists peer IPs whose X-Forwarded-For header is honored.
	TrustedProxies []string
}

// LimitsFromConfig reads the rate_limiter.* keys.
func LimitsFromConfig() Limits {
	gRate, gBurst := config.GetGlobalRateLimiterConfig()
	rRate, rBurst := config.GetRouteRateLimiterConfig()
	return Limits{
		GlobalPerMinute: gRate,
		GlobalBurst:     gBurst,
		RoutePerMinute:  rRate,
		RouteBurst:      rBurst,
		IdleTimeout:     config.GetRateLimiterCleanupTimeout(),
		TrustedProxies:  config.GetTrustedProxies(),
	}
}

// RateLimiter enforces a per-IP limit across all wrapped routes and a
// tighter per-IP limit on each individual route.
type RateLimiter struct {
	limits  Limits
	trusted map[string]bool

	mu     sync.Mutex
	global map[string]*visitor            // ip
	routes map[string]map[string]*visitor // ip -> route
}

func NewRateLimiter(limits Limits) *RateLimiter {
	trusted := make(map[string]bool, len(limits.TrustedProxies))
	for _, ip := range limits.TrustedProxies {
		trusted[strings.TrimSpace(ip)] = true
	}
	return &RateLimiter{
		limits:  limits,
		trusted: trusted,
		global:  make(map[string]*visitor),
		routes:  make(map[string]map[string]*visitor),
	}
}

func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60.0)
}

// limiters returns the global and route limiters for ip, creating them if needed.
func (rl *RateLimiter) limiters(ip, route string) (*rate.Limiter, *rate.Limiter) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()

	g, ok := rl.global[ip]
	if !ok {
		g = &visitor{limiter: rate.NewLimiter(perMinute(rl.limits.GlobalPerMinute), rl.limits.GlobalBurst)}
		rl.global[ip] = g
	}
	g.lastSeen = now

	byRoute, ok := rl.routes[ip]
	if !ok {
		byRoute = make(map[string]*visitor)
		rl.routes[ip] = byRoute
	}
	r, ok := byRoute[route]
	if !ok {
		r = &visitor{limiter: rate.NewLimiter(perMinute(rl.limits.RoutePerMinute), rl.limits.RouteBurst)}
		byRoute[route] = r
	}
	r.lastSeen = now

	return g.limiter, r.limiter
}

// Sweep drops visitors idle for longer than the configured timeout.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.global {
		if now.Sub(v.lastSeen) > rl.limits.IdleTimeout {
			delete(rl.global, ip)
		}
	}
	for ip, byRoute := range rl.routes {
		for route, v := range byRoute {
			if now.Sub(v.lastSeen) > rl.limits.IdleTimeout {
				delete(byRoute, route)
			}
		}
		if len(byRoute) == 0 {
			delete(rl.routes, ip)
		}
	}
}

// StartCleanup sweeps idle visitors every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.Sweep(now)
			}
		}
	}()
}

// Reset clears all visitor state. Used primarily for testing.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.global = make(map[string]*visitor)
	rl.routes = make(map[string]map[string]*visitor)
}

func (rl *RateLimiter) visitorCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.global)
}

// getIP returns the peer address of r. X-Forwarded-For is only consulted
// when the peer is a trusted proxy, and then the right-most hop that is not
// itself trusted is the client.
func getIP(r *http.Request, trusted map[string]bool) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr // fallback
	}
	if !trusted[ip] {
		return ip
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !trusted[hop] {
			return hop
		}
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}

// Middleware returns an HTTP middleware that enforces the global and per-route limits.
// If a limit is exceeded, it responds with a 429 status and a JSON error message.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalLimiter, routeLimiter := rl.limiters(getIP(r, rl.trusted), r.URL.Path)
		if !globalLimiter.Allow() {
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per IP", rl.limits.GlobalPerMinute),
				"Too Many Requests (global limit)")
			return
		}
		if !routeLimiter.Allow() {
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per route per IP", rl.limits.RoutePerMinute),
				"Too Many Requests (route limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
