package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoangnm/techshop/currency"
	"github.com/hoangnm/techshop/internal/log"
)

func cartCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and modify the cart",
	}
	command.AddCommand(
		cartShowCommand(),
		cartAddCommand(),
		cartUpdateCommand(),
		cartRemoveCommand(),
	)
	return command
}

func cartShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current cart",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main cartShowCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			if err := app.store.Fetch(c); err != nil {
				return err
			}
			for _, line := range app.store.Items() {
				warning := ""
				if line.StockWarning {
					warning = "  (only " + fmt.Sprint(line.Quantity) + " left in stock)"
				}
				fmt.Printf(
					"%s / %s  %s x%d = %s%s\n",
					line.Product.Name,
					line.Variant.Name,
					currency.Format(line.Variant.EffectivePrice()),
					line.Quantity,
					currency.Format(line.LineTotal()),
					warning,
				)
			}
			fmt.Printf(
				"%d lines, total %s\n",
				app.store.Count(),
				currency.Format(app.store.Total()),
			)
			return nil
		},
	}
}

func cartAddCommand() *cobra.Command {
	var (
		product  string
		variant  string
		quantity int32
	)
	command := &cobra.Command{
		Use:   "add",
		Short: "Add a product variant to the cart",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main cartAddCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			productId, variantId, err := parseLineIds(product, variant)
			if err != nil {
				return err
			}
			err = app.store.Add(c, productId, variantId, quantity)
			app.printNotifications()
			return err
		},
	}
	command.Flags().StringVar(&product, "product", "", "product id")
	command.Flags().StringVar(&variant, "variant", "", "variant id")
	command.Flags().Int32Var(&quantity, "quantity", 1, "quantity")
	return command
}

func cartUpdateCommand() *cobra.Command {
	var (
		product  string
		variant  string
		quantity int32
	)
	command := &cobra.Command{
		Use:   "update",
		Short: "Change the quantity of a cart line",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main cartUpdateCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			productId, variantId, err := parseLineIds(product, variant)
			if err != nil {
				return err
			}
			if err := app.store.Fetch(c); err != nil {
				return err
			}
			err = app.store.Update(c, productId, variantId, quantity)
			app.printNotifications()
			return err
		},
	}
	command.Flags().StringVar(&product, "product", "", "product id")
	command.Flags().StringVar(&variant, "variant", "", "variant id")
	command.Flags().Int32Var(&quantity, "quantity", 1, "quantity")
	return command
}

func cartRemoveCommand() *cobra.Command {
	var (
		product string
		variant string
	)
	command := &cobra.Command{
		Use:   "remove",
		Short: "Remove a line from the cart",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main cartRemoveCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			productId, variantId, err := parseLineIds(product, variant)
			if err != nil {
				return err
			}
			err = app.store.Remove(c, productId, variantId)
			app.printNotifications()
			return err
		},
	}
	command.Flags().StringVar(&product, "product", "", "product id")
	command.Flags().StringVar(&variant, "variant", "", "variant id")
	return command
}

func parseLineIds(product, variant string) (uuid.UUID, uuid.UUID, error) {
	productId, err := uuid.Parse(product)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed parsing product id with error=%w", err)
	}
	variantId, err := uuid.Parse(variant)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed parsing variant id with error=%w", err)
	}
	return productId, variantId, nil
}
