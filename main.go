package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verzel/sdr-agent/agent/journal"
	"github.com/verzel/sdr-agent/agent/orchestrator"
	"github.com/verzel/sdr-agent/agent/prompt"
	"github.com/verzel/sdr-agent/api"
	"github.com/verzel/sdr-agent/pkg/calendly"
	configx "github.com/verzel/sdr-agent/pkg/config"
	_ "github.com/verzel/sdr-agent/pkg/logger/autoload"
	"github.com/verzel/sdr-agent/pkg/openai"
	"github.com/verzel/sdr-agent/pkg/pipefy"
)

type AppConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	model := openai.MustNew(*configx.MustNew[openai.Config]("OPENAI"), prompt.SystemPrompt())
	crm := pipefy.MustNew(*configx.MustNew[pipefy.Config]("PIPEFY"))
	scheduler := calendly.MustNew(*configx.MustNew[calendly.Config]("CALENDLY"))

	var opts []orchestrator.Option
	journalCfg := configx.MustNew[journal.Config]("JOURNAL")
	if journalCfg.Enabled() {
		store := journal.MustNew(*journalCfg)
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		opts = append(opts, orchestrator.WithJournal(store))
		log.Info().Msg("lead-event journal enabled")
	}

	agent, err := orchestrator.New(model, crm, scheduler, opts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, agent)

	srv := &http.Server{
		Addr:    appCfg.Addr,
		Handler: api.RequestLogger(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", appCfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
