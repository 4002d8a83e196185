package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type clientInfo struct {
	count   int
	resetAt time.Time
}

// RateLimiter - счётчик запросов на IP в фиксированном окне
type RateLimiter struct {
	limit   int
	window  time.Duration
	clients map[string]*clientInfo
	mtx     sync.Mutex
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientInfo),
		now:     time.Now,
	}
}

// RateLimit - лимит в запросах в минуту; 0 отключает проверку
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return NewRateLimiter(rpm, time.Minute).Handler
}

// allow возвращает остаток и момент сброса; ok=false - лимит исчерпан
func (rl *RateLimiter) allow(ip string) (remaining int, resetAt time.Time, ok bool) {
	now := rl.now()

	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	info, exists := rl.clients[ip]
	switch {
	case !exists || now.After(info.resetAt):
		if len(rl.clients) > 1024 {
			rl.evict(now)
		}
		info = &clientInfo{resetAt: now.Add(rl.window)}
		rl.clients[ip] = info
	case info.count >= rl.limit:
		return 0, info.resetAt, false
	}

	info.count++
	return max(rl.limit-info.count, 0), info.resetAt, true
}

// evict выкидывает клиентов с истёкшим окном
func (rl *RateLimiter) evict(now time.Time) {
	for ip, info := range rl.clients {
		if now.After(info.resetAt) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, resetAt, ok := rl.allow(clientIP(r))
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(resetAt.Sub(rl.now()).Seconds())+1))
			w.WriteHeader(http.StatusTooManyRequests)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      "rate_limit_exceeded",
				"message":    "Слишком много запросов. Попробуйте позже.",
				"request_id": GetRequestID(r.Context()),
			})
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
