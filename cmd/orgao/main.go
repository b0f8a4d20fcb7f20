package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/db"
	"github.com/arquivamais/processos/internal/orgao"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	svc := orgao.NewService(orgao.NewRepository(pool))

	switch os.Args[1] {
	case "create":
		if err := runCreate(ctx, svc, os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar órgão")
		}
	case "list":
		if err := runList(ctx, svc); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar órgãos")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "orgao CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  orgao create --nome \"Prefeitura de Exemplo\" --cnpj 12.345.678/0001-90 --tipo PREFEITURA [--responsavel \"Fulano\"]")
	fmt.Fprintln(os.Stderr, "  orgao list")
}

func runCreate(ctx context.Context, svc *orgao.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome        = fs.String("nome", "", "nome do órgão")
		cnpj        = fs.String("cnpj", "", "CNPJ (com ou sem máscara)")
		tipo        = fs.String("tipo", "PREFEITURA", "PREFEITURA, SECRETARIA ou DEPARTAMENTO")
		responsavel = fs.String("responsavel", "", "responsável (opcional)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nome == "" || *cnpj == "" {
		return errors.New("nome e cnpj são obrigatórios")
	}

	input := orgao.CreateInput{
		Nome: *nome,
		CNPJ: *cnpj,
		Tipo: orgao.Tipo(strings.ToUpper(*tipo)),
	}
	if *responsavel != "" {
		input.Responsavel = responsavel
	}

	created, err := svc.Create(ctx, input)
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(created, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, svc *orgao.Service) error {
	orgaos, err := svc.List(ctx, orgao.ListFilter{})
	if err != nil {
		return err
	}

	if len(orgaos) == 0 {
		fmt.Println("nenhum órgão cadastrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(orgaos, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
