package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// LimitRecorder contabiliza requisições recusadas por limiter.
type LimitRecorder interface {
	RateLimited(limiter string)
}

// RateLimiter mantém limiters por chave com expiração simples.
type RateLimiter struct {
	name     string
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	store    map[string]*limiterEntry
	maxAge   time.Duration
	recorder LimitRecorder
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewRateLimiter cria instância compatível com múltiplas chaves.
// O nome identifica o limiter nos logs e nas métricas.
func NewRateLimiter(name string, reqPerSec float64, burst int) *RateLimiter {
	maxAge := 10 * time.Minute
	// entradas vivem ao menos o tempo de recarga completa do bucket
	if reqPerSec > 0 {
		if refill := time.Duration(float64(burst) / reqPerSec * float64(time.Second)); refill > maxAge {
			maxAge = refill
		}
	}
	return &RateLimiter{
		name:   name,
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		store:  make(map[string]*limiterEntry),
		maxAge: maxAge,
	}
}

// WithRecorder liga a contagem de recusas.
func (r *RateLimiter) WithRecorder(rec LimitRecorder) *RateLimiter {
	r.recorder = rec
	return r
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.store[key]; ok {
		entry.updated = time.Now()
		return entry.limiter
	}

	lim := rate.NewLimiter(r.limit, r.burst)
	r.store[key] = &limiterEntry{limiter: lim, updated: time.Now()}

	for k, entry := range r.store {
		if time.Since(entry.updated) > r.maxAge {
			delete(r.store, k)
		}
	}

	return lim
}

// LimitByKey aplica rate limit por chave arbitrária.
func (r *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) (string, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key, ok := keyFunc(req)
		if !ok || key == "" {
			next.ServeHTTP(w, req)
			return
		}

		res := r.get(key).Reserve()
		if delay := res.Delay(); !res.OK() || delay > 0 {
			res.Cancel()
			retry := 1
			if res.OK() {
				retry = int(math.Ceil(delay.Seconds()))
			}
			if retry < 1 {
				retry = 1
			}
			log.Warn().Str("limiter", r.name).Str("key", key).Str("path", req.URL.Path).Msg("limite de requisições excedido")
			if r.recorder != nil {
				r.recorder.RateLimited(r.name)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeRateLimitError(w)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// IPRateLimit utiliza o IP remoto da conexão como chave.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			return clientIP(r), true
		})
	}
}

// UserRateLimit utiliza o usuário autenticado como chave.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			p := GetPrincipal(r.Context())
			if p == nil {
				return "", false
			}
			return strconv.FormatInt(p.ID, 10), true
		})
	}
}

// clientIP usa apenas RemoteAddr. Cabeçalhos de proxy só contam quando o
// roteador os aplica via RealIP (TRUST_PROXY).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "Limite de requisições excedido")
}
