package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa as métricas HTTP e de domínio expostas em /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
	rateLimited     *prometheus.CounterVec

	processosCriados       prometheus.Counter
	tramitacoes            prometheus.Counter
	notificacoesExpurgadas prometheus.Counter
	loginFalhas            prometheus.Counter
}

// New cria um registro próprio com as métricas da aplicação e do runtime.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "processos_http_requests_total",
				Help: "Total de requisições HTTP por rota, método e status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "processos_http_request_duration_seconds",
				Help:    "Duração das requisições HTTP em segundos",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "processos_http_active_requests",
			Help: "Requisições em andamento",
		}),
		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "processos_http_rate_limited_total",
				Help: "Requisições recusadas pelo limitador",
			},
			[]string{"limiter"},
		),
		processosCriados: factory.NewCounter(prometheus.CounterOpts{
			Name: "processos_criados_total",
			Help: "Processos cadastrados",
		}),
		tramitacoes: factory.NewCounter(prometheus.CounterOpts{
			Name: "processos_tramitacoes_total",
			Help: "Mudanças de setor",
		}),
		notificacoesExpurgadas: factory.NewCounter(prometheus.CounterOpts{
			Name: "processos_notificacoes_expurgadas_total",
			Help: "Notificações removidas pela limpeza periódica",
		}),
		loginFalhas: factory.NewCounter(prometheus.CounterOpts{
			Name: "processos_login_falhas_total",
			Help: "Tentativas de login recusadas",
		}),
	}
}

// Handler expõe o registro no formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted registra o início de uma requisição.
func (m *Metrics) RequestStarted() {
	m.activeRequests.Inc()
}

// RequestCompleted registra o fim de uma requisição.
func (m *Metrics) RequestCompleted(route, method, status string, duration time.Duration) {
	m.activeRequests.Dec()
	m.requestCounter.WithLabelValues(route, method, status).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RateLimited conta uma recusa do limitador informado.
func (m *Metrics) RateLimited(limiter string) {
	m.rateLimited.WithLabelValues(limiter).Inc()
}

// ProcessoCriado conta um cadastro.
func (m *Metrics) ProcessoCriado() {
	m.processosCriados.Inc()
}

// SetorAlterado conta uma tramitação.
func (m *Metrics) SetorAlterado() {
	m.tramitacoes.Inc()
}

// NotificacoesExpurgadas soma notificações removidas.
func (m *Metrics) NotificacoesExpurgadas(n int64) {
	if n > 0 {
		m.notificacoesExpurgadas.Add(float64(n))
	}
}

// LoginFalhou conta uma tentativa de login recusada.
func (m *Metrics) LoginFalhou() {
	m.loginFalhas.Inc()
}
