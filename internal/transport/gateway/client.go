// Package gateway клиент платежного шлюза с Razorpay-совместимым API заказов.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/transport/apierr"
	"github.com/pkg/errors"
)

const (
	RouteOrders = "/v1/orders"
	RouteOrder  = "/v1/orders/%s"

	DefaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client является реализацией платежного шлюза через HTTP API с basic авторизацией по паре key id / key secret.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func New(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateOrder создает заказ на сумму amount (в минимальных единицах валюты) с квитанцией receipt.
func (c *Client) CreateOrder(
	ctx context.Context,
	amount int64,
	currency string,
	receipt string,
) (*domain.GatewayOrder, error) {
	body, marshalErr := json.Marshal(orderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if marshalErr != nil {
		return nil, errors.Wrap(marshalErr, "marshal order request")
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+RouteOrders, body, &resp); err != nil {
		return nil, errors.Wrapf(err, "create order with receipt `%s`", receipt)
	}
	return resp.toDomain(), nil
}

// FetchOrder получает заказ по его id. При ответе со статусом отличным от http.StatusOK возвращает
// apierr.StatusCodeError или apierr.TooManyRequestError.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*domain.GatewayOrder, error) {
	u := c.baseURL + fmt.Sprintf(RouteOrder, url.PathEscape(orderID))

	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "fetch order `%s`", orderID)
	}
	return resp.toDomain(), nil
}

//nolint:nonamedreturns
func (c *Client) do(ctx context.Context, method, u string, body []byte, dst any) (err error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, reqErr := http.NewRequestWithContext(ctx, method, u, reqBody)
	if reqErr != nil {
		return errors.Wrap(reqErr, "create request")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return errors.Wrap(doErr, "do request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close response body")
		}
	}()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if readErr != nil {
		return errors.Wrap(readErr, "read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return apierr.FromTooManyRequests(resp)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)
		return apierr.NewStatusCodeError(resp.StatusCode, errResp.Error.Description)
	}

	if jsonErr := json.Unmarshal(respBody, dst); jsonErr != nil {
		return errors.Wrap(jsonErr, "parse response")
	}
	return nil
}

func (r orderResponse) toDomain() *domain.GatewayOrder {
	return &domain.GatewayOrder{
		ID:       r.ID,
		Amount:   r.Amount,
		Currency: r.Currency,
		Receipt:  r.Receipt,
		Status:   r.Status,
	}
}
