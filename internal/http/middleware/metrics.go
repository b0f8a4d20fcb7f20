package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestRecorder recebe as medições de cada requisição.
type RequestRecorder interface {
	RequestStarted()
	RequestCompleted(route, method, status string, duration time.Duration)
}

// Metrics mede requisições pelo padrão de rota do chi, evitando cardinalidade por id.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			rec.RequestStarted()

			next.ServeHTTP(ww, r)

			route := "desconhecida"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.RequestCompleted(route, r.Method, strconv.Itoa(status), time.Since(start))
		})
	}
}
