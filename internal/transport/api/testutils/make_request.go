// Package testutils помощники для тестов http роутера.
package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
)

type RequestOptions struct {
	headers map[string]string
}

type RequestArgs struct {
	Router http.Handler
	Method string
	URL    string
	Body   io.Reader
}

// MakeRequest выполняет запрос к роутеру без поднятия сервера.
func MakeRequest(args RequestArgs, opts ...func(*RequestOptions)) (*http.Response, error) {
	if args.Router == nil {
		return nil, fmt.Errorf("make request %s %s: router is nil", args.Method, args.URL)
	}

	options := RequestOptions{
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&options)
	}

	request := httptest.NewRequest(args.Method, args.URL, args.Body)
	for k, v := range options.headers {
		request.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	args.Router.ServeHTTP(recorder, request)

	return recorder.Result(), nil
}

// JSONBody сериализует v для использования в RequestArgs.Body.
func JSONBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %s", err.Error())
	}
	return bytes.NewReader(raw), nil
}

func WithHeader(name, value string) func(*RequestOptions) {
	return func(fn *RequestOptions) {
		fn.headers[name] = value
	}
}

// WithBearer добавляет заголовок Authorization. Пустой token заголовок не добавляет.
func WithBearer(token string) func(*RequestOptions) {
	return func(fn *RequestOptions) {
		if token != "" {
			fn.headers["Authorization"] = "Bearer " + token
		}
	}
}

func WithJSONContentType() func(*RequestOptions) {
	return WithHeader("Content-Type", "application/json")
}
