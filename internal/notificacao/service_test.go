package notificacao

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arquivamais/processos/internal/config"
)

type memRepo struct {
	mu     sync.Mutex
	items  []Notificacao
	nextID int64
	now    time.Time
}

func (m *memRepo) Insert(ctx context.Context, usuarioID int64, mensagem string) (*Notificacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.now = m.now.Add(time.Second)
	n := Notificacao{ID: m.nextID, UsuarioID: usuarioID, Mensagem: mensagem, CreatedAt: m.now}
	m.items = append(m.items, n)
	return &n, nil
}

func (m *memRepo) ListByUsuario(ctx context.Context, usuarioID int64, limit int) ([]Notificacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notificacao
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		if m.items[i].UsuarioID == usuarioID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *memRepo) CountUnread(ctx context.Context, usuarioID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, it := range m.items {
		if it.UsuarioID == usuarioID && !it.Lida {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) MarkRead(ctx context.Context, id, usuarioID int64) (*Notificacao, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UsuarioID == usuarioID {
			m.items[i].Lida = true
			n := m.items[i]
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) MarkAllRead(ctx context.Context, usuarioID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UsuarioID == usuarioID && !m.items[i].Lida {
			m.items[i].Lida = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, it := range m.items {
		if it.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return n, nil
}

func TestListReturnsLatestFiftyOfOwner(t *testing.T) {
	repo := &memRepo{now: time.Now()}
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := svc.Create(ctx, 1, "aviso")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, 2, "de outro usuário")
	require.NoError(t, err)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, ListLimit)
	assert.Equal(t, int64(60), items[0].ID)
	for _, it := range items {
		assert.Equal(t, int64(1), it.UsuarioID)
	}

	_, err = svc.Create(ctx, 1, "   ")
	assert.Error(t, err)
}

func TestMarkReadRequiresOwnership(t *testing.T) {
	repo := &memRepo{now: time.Now()}
	svc := NewService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, 1, "Processo 1 foi atribuído a você")
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, n.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	read, err := svc.MarkRead(ctx, n.ID, 1)
	require.NoError(t, err)
	assert.True(t, read.Lida)

	unread, err := svc.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestMarkAllReadReturnsAffectedCount(t *testing.T) {
	repo := &memRepo{now: time.Now()}
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, 5, "aviso"))
	}
	_, err := svc.MarkRead(ctx, 1, 5)
	require.NoError(t, err)

	count, err := svc.MarkAllRead(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = svc.MarkAllRead(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPurgeOlderThanIgnoresReadState(t *testing.T) {
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	repo := &memRepo{items: []Notificacao{
		{ID: 1, UsuarioID: 1, Lida: true, CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: 2, UsuarioID: 1, Lida: false, CreatedAt: now.Add(-7*24*time.Hour - time.Minute)},
		{ID: 3, UsuarioID: 1, Lida: false, CreatedAt: now.Add(-6 * 24 * time.Hour)},
	}}
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	deleted, err := svc.PurgeOlderThan(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.Len(t, repo.items, 1)
	assert.Equal(t, int64(3), repo.items[0].ID)
}

type stubPurger struct {
	mu    sync.Mutex
	calls int
	ret   time.Duration
	err   error
}

func (s *stubPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ret = retention
	return 4, s.err
}

func (s *stubPurger) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type purgeCounter struct {
	mu    sync.Mutex
	total int64
}

func (p *purgeCounter) NotificacoesExpurgadas(n int64) {
	p.mu.Lock()
	p.total += n
	p.mu.Unlock()
}

func TestJanitorRunOnce(t *testing.T) {
	purger := &stubPurger{}
	counter := &purgeCounter{}
	j := NewJanitor(purger, config.NotificacoesConfig{CleanupEnabled: true}, counter, zerolog.Nop())

	assert.Equal(t, int64(4), j.RunOnce(context.Background()))
	assert.Equal(t, 7*24*time.Hour, purger.ret)
	assert.Equal(t, int64(4), counter.total)

	purger.err = errors.New("conexão recusada")
	assert.Equal(t, int64(0), j.RunOnce(context.Background()))
	assert.Equal(t, int64(4), counter.total)
}

func TestJanitorLoopRunsImmediatelyAndStops(t *testing.T) {
	purger := &stubPurger{}
	cfg := config.NotificacoesConfig{CleanupEnabled: true, CleanupInterval: 10 * time.Millisecond, Retention: time.Hour}
	j := NewJanitor(purger, cfg, nil, zerolog.Nop())

	j.Start(context.Background())
	j.Start(context.Background())
	require.Eventually(t, func() bool { return purger.count() >= 2 }, time.Second, 5*time.Millisecond)
	j.Stop()

	calls := purger.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, purger.count())
	assert.Equal(t, time.Hour, purger.ret)
}

func TestJanitorDisabled(t *testing.T) {
	purger := &stubPurger{}
	j := NewJanitor(purger, config.NotificacoesConfig{CleanupEnabled: false}, nil, zerolog.Nop())

	j.Start(context.Background())
	j.Stop()
	assert.Equal(t, 0, purger.count())
}
