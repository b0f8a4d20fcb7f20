package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()

	m.RequestStarted()
	m.RequestCompleted("/processos/{id}", http.MethodGet, "200", 15*time.Millisecond)
	m.ProcessoCriado()
	m.SetorAlterado()
	m.SetorAlterado()
	m.NotificacoesExpurgadas(3)
	m.NotificacoesExpurgadas(0)
	m.RateLimited("login")
	m.LoginFalhou()

	body := scrape(t, m)
	assert.Contains(t, body, `processos_http_requests_total{method="GET",route="/processos/{id}",status="200"} 1`)
	assert.Contains(t, body, "processos_http_active_requests 0")
	assert.Contains(t, body, "processos_criados_total 1")
	assert.Contains(t, body, "processos_tramitacoes_total 2")
	assert.Contains(t, body, "processos_notificacoes_expurgadas_total 3")
	assert.Contains(t, body, `processos_http_rate_limited_total{limiter="login"} 1`)
	assert.Contains(t, body, "processos_login_falhas_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a := New()
	b := New()
	a.ProcessoCriado()

	assert.Contains(t, scrape(t, b), "processos_criados_total 0")
}
