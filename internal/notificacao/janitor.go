package notificacao

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arquivamais/processos/internal/config"
)

type purger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// PurgeRecorder recebe a contagem de notificações removidas.
type PurgeRecorder interface {
	NotificacoesExpurgadas(n int64)
}

// Janitor remove periodicamente notificações vencidas.
type Janitor struct {
	svc      purger
	cfg      config.NotificacoesConfig
	recorder PurgeRecorder
	logger   zerolog.Logger

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor cria a rotina de limpeza; recorder pode ser nil.
func NewJanitor(svc purger, cfg config.NotificacoesConfig, recorder PurgeRecorder, logger zerolog.Logger) *Janitor {
	return &Janitor{svc: svc, cfg: cfg, recorder: recorder, logger: logger}
}

// Start inicia o loop. Chamadas repetidas são ignoradas.
func (j *Janitor) Start(parent context.Context) {
	if !j.cfg.CleanupEnabled {
		j.logger.Info().Msg("limpeza de notificações desativada")
		return
	}
	j.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		j.cancel = cancel
		j.done = make(chan struct{})
		go j.runLoop(ctx)
	})
}

// Stop encerra o loop e aguarda a execução em andamento.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
}

func (j *Janitor) runLoop(ctx context.Context) {
	defer close(j.done)

	interval := j.cfg.CleanupInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", interval).Dur("retention", j.retention()).Msg("limpeza de notificações iniciada")

	j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("limpeza de notificações encerrada")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce executa uma limpeza e devolve quantas notificações saíram.
// Falhas são registradas e não interrompem o loop.
func (j *Janitor) RunOnce(ctx context.Context) int64 {
	deleted, err := j.svc.PurgeOlderThan(ctx, j.retention())
	if err != nil {
		j.logger.Error().Err(err).Msg("limpeza de notificações falhou")
		return 0
	}
	if j.recorder != nil {
		j.recorder.NotificacoesExpurgadas(deleted)
	}
	j.logger.Info().Int64("removidas", deleted).Msg("limpeza de notificações concluída")
	return deleted
}

func (j *Janitor) retention() time.Duration {
	if j.cfg.Retention <= 0 {
		return 7 * 24 * time.Hour
	}
	return j.cfg.Retention
}
