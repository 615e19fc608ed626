// Package imagegen клиент API генерации изображений по текстовому описанию (ClipDrop text-to-image).
package imagegen

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fsdevblog/imagify/internal/transport/apierr"
	"github.com/pkg/errors"
)

const (
	RouteTextToImage = "/text-to-image/v1"

	DefaultTimeout     = 30 * time.Second
	DefaultContentType = "image/png"
	maxImageSize       = 20 << 20
)

// Client является реализацией генератора изображений через HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate отправляет prompt во внешний API и возвращает байты изображения и его content type.
// При ответе со статусом отличным от http.StatusOK возвращает apierr.StatusCodeError
// или apierr.TooManyRequestError.
//
//nolint:nonamedreturns
func (c *Client) Generate(ctx context.Context, prompt string) (data []byte, contentType string, err error) {
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if fieldErr := mw.WriteField("prompt", prompt); fieldErr != nil {
		return nil, "", errors.Wrap(fieldErr, "write prompt field")
	}
	if closeErr := mw.Close(); closeErr != nil {
		return nil, "", errors.Wrap(closeErr, "close multipart writer")
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RouteTextToImage, &form)
	if reqErr != nil {
		return nil, "", errors.Wrap(reqErr, "create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, "", errors.Wrap(doErr, "do request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close response body")
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", apierr.FromTooManyRequests(resp)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if readErr != nil {
		return nil, "", errors.Wrap(readErr, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", apierr.NewStatusCodeError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) == 0 {
		return nil, "", errors.New("empty image in response")
	}

	contentType = resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = DefaultContentType
	}
	return body, contentType, nil
}
