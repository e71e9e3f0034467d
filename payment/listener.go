// Package payment hosts the short-lived localhost listener that catches the
// payment gateway's return redirect after a checkout handed the user off to
// an external payment page.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/hoangnm/techshop/internal/config"
	inHttp "github.com/hoangnm/techshop/internal/http"
	"github.com/hoangnm/techshop/internal/log"
	"github.com/hoangnm/techshop/internal/middleware"
)

const appName = "techshop-payment-listener"

// Result is the gateway's verdict carried back on the return redirect.
type Result struct {
	OrderID uuid.UUID
	Success bool
	Message string
}

type Listener struct {
	addr string
}

func NewListener(cfg config.Payment) *Listener {
	return &Listener{addr: fmt.Sprintf("%s:%d", cfg.CallbackHost, cfg.CallbackPort)}
}

// ReturnUrl is where the gateway should send the shopper back to.
func (l *Listener) ReturnUrl() string {
	return "http://" + l.addr + "/payment/return"
}

// Await serves the callback endpoint until the gateway redirects back or c
// is cancelled.
func (l *Listener) Await(c context.Context) (Result, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, appName).
		Str(log.KeyTag, "Listener Await").
		Logger()

	results := make(chan Result, 1)

	router := mux.NewRouter()
	router.Use(otelmux.Middleware(appName), middleware.Logging, middleware.RecoverPanic)
	router.HandleFunc("/payment/return", func(w http.ResponseWriter, r *http.Request) {
		rc := r.Context()
		rlogger := zerolog.Ctx(rc).
			With().
			Str(log.KeyTag, "Listener paymentReturn").
			Logger()

		query := r.URL.Query()
		orderId, err := uuid.Parse(query.Get("orderId"))
		if err != nil {
			err = fmt.Errorf("failed parsing orderId with error=%w", err)
			rlogger.Error().Err(err).Msg(err.Error())
			inHttp.WriteJsonResponse(rc, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusBadRequest,
				"message":    err.Error(),
			})
			return
		}

		result := Result{
			OrderID: orderId,
			Success: query.Get("status") == "success",
			Message: query.Get("message"),
		}
		rlogger.Info().
			Str(log.KeyOrderID, orderId.String()).
			Bool("success", result.Success).
			Msg("received payment return")

		inHttp.WriteJsonResponse(rc, w, map[string]string{}, map[string]interface{}{
			"status":     "success",
			"statusCode": http.StatusOK,
			"message":    "payment result received, you can close this tab",
		})

		select {
		case results <- result:
		default:
		}
	}).Methods(http.MethodGet)

	httpServer := http.Server{
		Addr:         l.addr,
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	serveErrs := make(chan error, 1)
	go func() {
		logger.Info().Msgf("start listening for payment return at %s", l.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while listener is running", err)
			logger.Error().Err(err).Msg(err.Error())
			serveErrs <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 5*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down payment listener")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			err = fmt.Errorf("failed shutting down payment listener with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown payment listener")
	}()

	select {
	case result := <-results:
		return result, nil
	case err := <-serveErrs:
		return Result{}, err
	case <-c.Done():
		return Result{}, fmt.Errorf("cancelled awaiting payment return with error=%w", c.Err())
	}
}
