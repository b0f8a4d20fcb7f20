package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/auth"
	"github.com/arquivamais/processos/internal/db"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		hashOnly = flag.String("hash", "", "apenas imprime o hash argon2id da senha informada")
		nome     = flag.String("nome", "Administrador", "nome do administrador")
		email    = flag.String("email", "", "e-mail de login")
		senha    = flag.String("senha", "", "senha inicial (mínimo 8 caracteres)")
		orgaoID  = flag.Int64("orgao-id", 0, "órgão ao qual o administrador pertence")
	)
	flag.Parse()

	if *hashOnly != "" {
		hash, err := auth.Hash(*hashOnly)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if *email == "" || *senha == "" || *orgaoID <= 0 {
		fmt.Fprintln(os.Stderr, "uso: seedadmin --email admin@exemplo.gov.br --senha <senha> --orgao-id 1 [--nome \"Administrador\"]")
		fmt.Fprintln(os.Stderr, "     seedadmin --hash <senha>")
		os.Exit(1)
	}

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

	usuarios := service.NewUsuarioService(repo.New(pool), orgao.NewService(orgao.NewRepository(pool)))
	created, err := usuarios.Register(ctx, service.RegisterInput{
		Nome:    *nome,
		Email:   *email,
		Senha:   *senha,
		Role:    string(service.RoleAdmin),
		OrgaoID: *orgaoID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar administrador")
	}
	log.Info().Int64("id", created.ID).Str("email", created.Email).Msg("administrador criado")
}
