package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/checkout"
	"github.com/hoangnm/techshop/currency"
	"github.com/hoangnm/techshop/internal/log"
	"github.com/hoangnm/techshop/notification"
	"github.com/hoangnm/techshop/payment"
)

func checkoutCommand() *cobra.Command {
	var (
		fullName string
		phone    string
		address  string
		note     string
		method   string
		coupon   string
		points   int64
	)

	command := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the current cart",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main checkoutCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			logger = logger.With().Str(log.KeyProcess, "fetching cart").Logger()
			logger.Info().Msg("fetching cart")
			c = logger.WithContext(c)
			if err := app.store.Fetch(c); err != nil {
				return err
			}
			logger.Info().Msg("fetched cart")

			flow := checkout.NewFlow(app.client, app.store, app.session, app.pricing, app.relay)

			logger = logger.With().Str(log.KeyProcess, "submitting shipping info").Logger()
			logger.Info().Msg("submitting shipping info")
			c = logger.WithContext(c)
			err = flow.SubmitShippingInfo(c, request.ShippingAddress{
				FullName: fullName,
				Phone:    phone,
				Address:  address,
				Note:     note,
			})
			if err != nil {
				return err
			}
			logger.Info().Msg("submitted shipping info")

			if err := flow.SelectPayment(c, method); err != nil {
				return err
			}

			if coupon != "" {
				if err := flow.ApplyCoupon(c, coupon); err != nil {
					app.printNotifications()
					return err
				}
			}
			if points > 0 {
				applied := flow.RedeemPoints(points)
				if applied != points {
					fmt.Printf("points clamped to %d\n", applied)
				}
			}

			breakdown := flow.Breakdown()
			fmt.Printf("subtotal   %s\n", currency.Format(breakdown.Subtotal))
			fmt.Printf("shipping   %s\n", currency.Format(breakdown.ShippingFee))
			fmt.Printf("discount  -%s\n", currency.Format(breakdown.DiscountAmount))
			fmt.Printf("points    -%s\n", currency.Format(breakdown.PointsValue))
			fmt.Printf("total      %s\n", currency.Format(breakdown.Total))

			logger = logger.With().Str(log.KeyProcess, "placing order").Logger()
			logger.Info().Msg("placing order")
			c = logger.WithContext(c)
			if err := flow.PlaceOrder(c); err != nil {
				app.printNotifications()
				return err
			}
			logger.Info().Msg("placed order")
			app.printNotifications()

			if flow.Step() == checkout.StepPlaced {
				fmt.Printf("order placed, id=%s\n", flow.OrderID())
				return nil
			}

			// redirect-style payment: hand the shopper to the gateway and
			// wait for it to send them back
			fmt.Printf("open this url to pay: %s\n", flow.RedirectUrl())
			listener := payment.NewListener(app.cfg.Payment)
			result, err := listener.Await(c)
			if err != nil {
				return err
			}
			if result.Success {
				app.relay.Publish(c, notification.LevelSuccess, "Payment confirmed")
				fmt.Printf("payment confirmed for order %s\n", result.OrderID)
			} else {
				app.relay.Publish(c, notification.LevelError, "Payment failed")
				fmt.Printf("payment failed for order %s: %s\n", result.OrderID, result.Message)
			}
			app.printNotifications()
			return nil
		},
	}

	command.Flags().StringVar(&fullName, "name", "", "recipient full name")
	command.Flags().StringVar(&phone, "phone", "", "recipient phone number")
	command.Flags().StringVar(&address, "address", "", "shipping address")
	command.Flags().StringVar(&note, "note", "", "delivery note")
	command.Flags().
		StringVar(&method, "method", checkout.MethodCOD, "payment method: COD, BANK_TRANSFER or VNPAY")
	command.Flags().StringVar(&coupon, "coupon", "", "coupon code")
	command.Flags().Int64Var(&points, "points", 0, "loyalty points to redeem")
	return command
}
