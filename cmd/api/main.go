package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/auth"
	"github.com/arquivamais/processos/internal/config"
	"github.com/arquivamais/processos/internal/db"
	internalhttp "github.com/arquivamais/processos/internal/http"
	"github.com/arquivamais/processos/internal/lookup"
	"github.com/arquivamais/processos/internal/metrics"
	"github.com/arquivamais/processos/internal/notificacao"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/processo"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	appMetrics := metrics.New()

	queries := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(queries, redisClient, jwtManager)

	orgaoService := orgao.NewService(orgao.NewRepository(pool))
	usuarioService := service.NewUsuarioService(queries, orgaoService)

	notificacaoService := notificacao.NewService(notificacao.NewRepository(pool))
	processoService := processo.NewService(processo.NewPgStore(pool), queries, notificacaoService, cfg.Location).
		WithRecorder(appMetrics)
	lookupRegistry := lookup.NewRegistry(lookup.NewRepository(pool))

	janitor := notificacao.NewJanitor(notificacaoService, cfg.Notificacoes, appMetrics,
		log.With().Str("component", "notificacoes").Logger())
	janitor.Start(ctx)
	defer janitor.Stop()

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Tokens:       jwtManager,
		Auth:         authService,
		Usuarios:     usuarioService,
		Processos:    processoService,
		Lookups:      lookupRegistry,
		Notificacoes: notificacaoService,
		Orgaos:       orgaoService,
		DB:           pool,
		Redis:        redisClient,
		Metrics:      appMetrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
