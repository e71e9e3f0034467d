package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoangnm/techshop/internal/log"
)

const appName = "techshop"

func Start() {
	logger := log.InitLogger("/tmp/techshop.log", os.Getenv("TECHSHOP_ENV")).
		With().
		Str(log.KeyAppName, appName).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Storefront client for the techshop backend",
	}
	rootCmd.AddCommand(
		productsCommand(),
		categoriesCommand(),
		cartCommand(),
		checkoutCommand(),
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
