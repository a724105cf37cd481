package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/institutomariaclaro/doacoes/internal/auth"
	"github.com/institutomariaclaro/doacoes/internal/db"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
	"github.com/institutomariaclaro/doacoes/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("falha ao semear administrador")
	}
}

func run() error {
	fs := flag.NewFlagSet("seedadmin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome  = fs.String("nome", "", "nome exibido do administrador")
		email = fs.String("email", "", "email de login")
		senha = fs.String("senha", "", "senha em texto claro (somente para o seed)")
	)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *nome == "" || *email == "" || *senha == "" {
		fs.Usage()
		return errors.New("nome, email e senha são obrigatórios")
	}

	if err := util.ValidateEmail(*email); err != nil {
		return err
	}
	if err := util.ValidatePassword(*senha); err != nil {
		return err
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return errors.New("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("não foi possível conectar ao banco: %w", err)
	}
	defer pool.Close()

	hash, err := auth.Hash(*senha)
	if err != nil {
		return fmt.Errorf("hash da senha: %w", err)
	}

	admin, err := usuario.NewRepository(pool).UpsertAdministrador(ctx, *nome, *email, hash)
	if err != nil {
		return err
	}

	log.Info().Int64("id", admin.ID).Str("email", admin.Email).Msg("administrador pronto")
	return nil
}
