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

	"github.com/institutomariaclaro/doacoes/internal/config"
	"github.com/institutomariaclaro/doacoes/internal/db"
	internalhttp "github.com/institutomariaclaro/doacoes/internal/http"
	"github.com/institutomariaclaro/doacoes/internal/mailer"
	"github.com/institutomariaclaro/doacoes/internal/mercadopago"
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

	ctx := context.Background()

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

	gateway, err := mercadopago.New(cfg.MercadoPago)
	if err != nil {
		return fmt.Errorf("mercadopago: %w", err)
	}

	var m mailer.Mailer
	if cfg.SMTP.Enabled() {
		m, err = mailer.NewSMTP(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
	} else {
		log.Warn().Msg("SMTP não configurado, e-mails de agradecimento desativados")
		m = mailer.Noop{}
	}

	handler := internalhttp.NewRouter(cfg, pool, redisClient, gateway, m)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
