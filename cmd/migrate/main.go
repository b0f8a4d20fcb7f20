package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/db"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	roles := flag.Bool("roles", false, "converte papéis do esquema antigo (executa uma única vez)")
	flag.Parse()

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, log.With().Str("component", "migrate").Logger())
	if err != nil {
		log.Fatal().Err(err).Int("aplicadas", applied).Msg("falha ao aplicar migrações")
	}
	log.Info().Int("aplicadas", applied).Msg("migrações concluídas")

	if !*roles {
		return
	}

	var changed int
	err = db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		changed, err = repo.New(tx).MigrateRoles(ctx, func(old string) string {
			return string(service.MigrateLegacyRole(old))
		})
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao converter papéis")
	}
	log.Info().Int("usuarios", changed).Msg("papéis convertidos")
}
