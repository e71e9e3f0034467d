package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoangnm/techshop/api"
	"github.com/hoangnm/techshop/cart"
	"github.com/hoangnm/techshop/checkout"
	"github.com/hoangnm/techshop/internal/config"
	"github.com/hoangnm/techshop/internal/log"
	"github.com/hoangnm/techshop/internal/otel"
	"github.com/hoangnm/techshop/notification"
	"github.com/hoangnm/techshop/session"
)

// app wires the storefront core explicitly: config, session, API client,
// notification relay, cart store, and pricing rules are constructed once
// and injected, never reached through ambient globals.
type app struct {
	cfg     *config.Config
	session *session.Session
	client  *api.Client
	relay   *notification.Relay
	store   *cart.Store
	pricing checkout.Pricing

	otelShutdowns []otel.ShutdownFunc
}

func initApp(c context.Context) (*app, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main initApp").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, appName)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, appName, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing session").Logger()
	logger.Info().Msg("initializing session")
	sess := session.New()
	if token := os.Getenv("TECHSHOP_TOKEN"); token != "" {
		c = logger.WithContext(c)
		if err := sess.SetToken(c, token); err != nil {
			logger.Warn().Err(err).Msg("ignoring invalid session token")
		}
	}
	logger.Info().Msg("initialized session")

	logger = logger.With().Str(log.KeyProcess, "initializing api client").Logger()
	logger.Info().Msg("initializing api client")
	client := api.NewClient(cfg.Api, sess)
	logger.Info().Msg("initialized api client")

	if sess.IsAuthenticated() {
		logger = logger.With().Str(log.KeyProcess, "refreshing current user").Logger()
		logger.Info().Msg("refreshing current user")
		c = logger.WithContext(c)
		user, err := client.GetCurrentUser(c)
		if err != nil {
			logger.Warn().Err(err).Msg("could not refresh current user, using token claims")
		} else {
			sess.SetPoints(user.Points)
			logger.Info().
				Str(log.KeyUserID, user.ID.String()).
				Int64(log.KeyPoints, user.Points).
				Msg("refreshed current user")
		}
	}

	relay := notification.NewRelay(5 * time.Second)
	store := cart.NewStore(client, sess, relay)
	pricing := checkout.NewPricing(cfg.Checkout)

	return &app{
		cfg:           cfg,
		session:       sess,
		client:        client,
		relay:         relay,
		store:         store,
		pricing:       pricing,
		otelShutdowns: otelShutdowns,
	}, nil
}

func (a *app) close(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main app close").
		Str(log.KeyProcess, "shutting down otel").
		Logger()

	logger.Info().Msg("shutting down otel")
	c = logger.WithContext(c)
	if err := otel.ShutdownOtel(c, a.otelShutdowns); err != nil {
		err = fmt.Errorf("failed shutting down otel with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown otel")
}

// printNotifications flushes the relay's live messages to the terminal,
// the CLI's stand-in for the storefront's toast area.
func (a *app) printNotifications() {
	for _, n := range a.relay.Active() {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
}
