package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yuanying/maktaba/internal/apperr"
)

const (
	headerRequestID     = "X-Request-ID"
	headerRealIP        = "X-Real-IP"
	headerForwardedFor  = "X-Forwarded-For"
	rateLimitClientTTL  = 10 * time.Minute
	rateLimitCleanEvery = time.Minute
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyLogger
)

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// newID returns a time-ordered UUID, falling back to a random one.
func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// requestID propagates X-Request-ID, minting one when the client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = newID()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyRequestID, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// structuredLogger attaches a request-scoped logger and logs one line per
// request, at WARN for 4xx and ERROR for 5xx.
func structuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(
				slog.String("request_id", requestIDFrom(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("ip", realIP(r)),
			)
			ctx := context.WithValue(r.Context(), keyLogger, reqLogger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			reqLogger.Log(ctx, level, "http_request_finished",
				slog.Int("status", rec.status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateClient
	limit   rate.Limit
	burst   int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*rateClient),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &rateClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rateLimitClientTTL {
			delete(rl.clients, ip)
		}
	}
}

// run evicts idle clients until ctx is done.
func (rl *rateLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(rateLimitCleanEvery)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.evict(now)
		case <-ctx.Done():
			return
		}
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(realIP(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			writeError(w, r, apperr.RateLimited(1))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// panicRecovery turns a handler panic into a 500 and logs the stack.
func panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				stack := make([]byte, 2048)
				n := runtime.Stack(stack, false)
				loggerFrom(r.Context()).ErrorContext(r.Context(), "panic_recovered",
					slog.Any("error", rec),
					slog.String("stack", string(stack[:n])),
				)
				writeError(w, r, apperr.Internal(nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// realIP prefers X-Real-IP, then the first X-Forwarded-For hop, then the
// connection's remote address.
func realIP(r *http.Request) string {
	if ip := r.Header.Get(headerRealIP); ip != "" {
		return ip
	}
	if fwd := r.Header.Get(headerForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
