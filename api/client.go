package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/api/response"
	"github.com/hoangnm/techshop/internal/config"
	inHttp "github.com/hoangnm/techshop/internal/http"
	"github.com/hoangnm/techshop/internal/log"
)

var tracer = otel.Tracer("techshop/api")

// TokenSource supplies the bearer token of the current session. An empty
// token means no Authorization header is attached.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseUrl string
	http    *http.Client
	token   TokenSource
}

func NewClient(cfg config.Api, token TokenSource) *Client {
	return &Client{
		baseUrl: cfg.BaseUrl,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		token: token,
	}
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func AsError(err error) (*Error, bool) {
	apiErr := &Error{}
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func (s *Client) do(
	c context.Context,
	method string,
	path string,
	query url.Values,
	body interface{},
	out interface{},
) error {
	c, span := tracer.Start(c, "Client "+method+" "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyRequestURL, s.baseUrl+path).
		Logger()

	var reader *bytes.Buffer
	if body != nil {
		bodyJson, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		reader = bytes.NewBuffer(bodyJson)
	} else {
		reader = &bytes.Buffer{}
	}

	requestUrl := s.baseUrl + path
	if len(query) > 0 {
		requestUrl += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(c, method, requestUrl, reader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	req.Header.Set(inHttp.HeaderContentType, inHttp.HeaderValueJson)
	if requestId := log.RequestIDFromContext(c); requestId != "" {
		req.Header.Set(inHttp.HeaderRequestID, requestId)
	}
	if token := s.token.Token(); token != "" {
		req.Header.Set(inHttp.HeaderAuthorization, "Bearer "+token)
	}

	logger.Trace().Msg("sending request")
	resp, err := s.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode).Logger()
	logger.Trace().Msg("received response")

	env := envelope{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{StatusCode: resp.StatusCode}
		}
		err = fmt.Errorf("failed decoding response body with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: env.Message}
		conflict := struct {
			Stock *int32 `json:"stock"`
		}{}
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &conflict) == nil {
			apiErr.Stock = conflict.Stock
		}
		logger.Error().Err(apiErr).Msg(apiErr.Error())
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			err = fmt.Errorf("failed unmarshaling response data with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	return nil
}

func (s *Client) GetCart(c context.Context) (response.Cart, error) {
	cart := response.Cart{}
	wrapper := struct {
		Cart *response.Cart `json:"cart"`
	}{Cart: &cart}
	if err := s.do(c, http.MethodGet, "/carts", nil, nil, &wrapper); err != nil {
		return response.Cart{}, fmt.Errorf("failed getting cart with error=%w", err)
	}
	return cart, nil
}

func (s *Client) AddCartItem(c context.Context, param request.AddCartItem) error {
	if err := s.do(c, http.MethodPost, "/carts/items", nil, param, nil); err != nil {
		return fmt.Errorf("failed adding cart item with error=%w", err)
	}
	return nil
}

func (s *Client) UpdateCartItem(c context.Context, param request.UpdateCartItem) error {
	path := "/carts/items/" + param.ProductId.String() + "/" + param.VariantId.String()
	if err := s.do(c, http.MethodPut, path, nil, param, nil); err != nil {
		return fmt.Errorf("failed updating cart item with error=%w", err)
	}
	return nil
}

func (s *Client) RemoveCartItem(c context.Context, productId, variantId uuid.UUID) error {
	path := "/carts/items/" + productId.String() + "/" + variantId.String()
	if err := s.do(c, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed removing cart item with error=%w", err)
	}
	return nil
}

func (s *Client) GetProducts(
	c context.Context,
	filter request.ProductFilter,
) (response.ProductPage, error) {
	page := response.ProductPage{}
	if err := s.do(c, http.MethodGet, "/products", filter.Query(), nil, &page); err != nil {
		return response.ProductPage{}, fmt.Errorf("failed getting products with error=%w", err)
	}
	return page, nil
}

func (s *Client) GetProductById(c context.Context, id uuid.UUID) (response.Product, error) {
	product := response.Product{}
	wrapper := struct {
		Product *response.Product `json:"product"`
	}{Product: &product}
	if err := s.do(c, http.MethodGet, "/products/"+id.String(), nil, nil, &wrapper); err != nil {
		return response.Product{}, fmt.Errorf("failed getting product by id with error=%w", err)
	}
	return product, nil
}

func (s *Client) GetCategories(c context.Context) ([]response.Category, error) {
	wrapper := struct {
		Categories []response.Category `json:"categories"`
	}{}
	if err := s.do(c, http.MethodGet, "/categories", nil, nil, &wrapper); err != nil {
		return nil, fmt.Errorf("failed getting categories with error=%w", err)
	}
	return wrapper.Categories, nil
}

func (s *Client) VerifyCoupon(
	c context.Context,
	param request.VerifyCoupon,
) (response.Coupon, error) {
	coupon := response.Coupon{}
	wrapper := struct {
		Coupon *response.Coupon `json:"coupon"`
	}{Coupon: &coupon}
	if err := s.do(c, http.MethodPost, "/coupons/verify", nil, param, &wrapper); err != nil {
		return response.Coupon{}, err
	}
	return coupon, nil
}

func (s *Client) CreateOrder(
	c context.Context,
	param request.CreateOrder,
) (response.Order, error) {
	order := response.Order{}
	wrapper := struct {
		Order *response.Order `json:"order"`
	}{Order: &order}
	if err := s.do(c, http.MethodPost, "/orders", nil, param, &wrapper); err != nil {
		return response.Order{}, err
	}
	return order, nil
}

func (s *Client) CreatePaymentRedirect(
	c context.Context,
	orderId uuid.UUID,
) (response.PaymentRedirect, error) {
	redirect := response.PaymentRedirect{}
	wrapper := struct {
		Redirect *response.PaymentRedirect `json:"redirect"`
	}{Redirect: &redirect}
	path := "/orders/" + orderId.String() + "/payment-redirect"
	if err := s.do(c, http.MethodPost, path, nil, nil, &wrapper); err != nil {
		return response.PaymentRedirect{}, fmt.Errorf(
			"failed creating payment redirect with error=%w",
			err,
		)
	}
	return redirect, nil
}

func (s *Client) GetCurrentUser(c context.Context) (response.User, error) {
	user := response.User{}
	wrapper := struct {
		User *response.User `json:"user"`
	}{User: &user}
	if err := s.do(c, http.MethodGet, "/users/me", nil, nil, &wrapper); err != nil {
		return response.User{}, fmt.Errorf("failed getting current user with error=%w", err)
	}
	return user, nil
}
