/*
Copyright 2026 The Discovery Agent contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package catalog implements the client of the external catalog API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 50
	DefaultPageSize  = 100
	DefaultRetryMax  = 3
	DefaultTimeout   = 60 * time.Second

	apiKeyHeader = "Api-Key"

	// maxErrorBody bounds how much of an error response is kept as message.
	maxErrorBody = 4096
)

// Options configures a Client.
type Options struct {
	// URL is the base URL of the catalog API.
	URL string
	// APIKey is sent in the Api-Key header of every request.
	APIKey string

	BatchSize int
	PageSize  int

	// RetryMax is the number of retries of a failed request.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Timeout bounds a single request attempt, including reading the
	// response body.
	Timeout time.Duration
}

func (o *Options) defaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.RetryMax < 0 {
		o.RetryMax = DefaultRetryMax
	}
	if o.RetryWaitMin <= 0 {
		o.RetryWaitMin = time.Second
	}
	if o.RetryWaitMax <= 0 {
		o.RetryWaitMax = 30 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// NewDefaultOptions returns Options with the default batch size, page size
// and retry budget.
func NewDefaultOptions() Options {
	o := Options{RetryMax: DefaultRetryMax}
	o.defaults()
	return o
}

// Client talks to the catalog API. It is stateless apart from its
// configuration and issues one request at a time per call.
type Client struct {
	http      *retryablehttp.Client
	baseURL   *url.URL
	apiKey    string
	batchSize int
	pageSize  int
	log       *zap.SugaredLogger
}

// New creates a Client. Transient failures (connection errors, 429 and 5xx
// responses) are retried with exponential backoff; 404 and 413 responses are
// returned immediately.
func New(opts Options, log *zap.SugaredLogger) (*Client, error) {
	opts.defaults()

	if opts.URL == "" {
		return nil, errors.New("catalog URL must not be empty")
	}
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", opts.URL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.RetryMax
	httpClient.RetryWaitMin = opts.RetryWaitMin
	httpClient.RetryWaitMax = opts.RetryWaitMax
	httpClient.HTTPClient.Timeout = opts.Timeout
	httpClient.CheckRetry = checkRetry
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.Logger = &leveledLogger{log: log.Named("http")}
	httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Warnw("Unexpected error occurred on request, retrying", "method", req.Method, "url", req.URL.String(), "retryCount", attempt)
		}
	}

	return &Client{
		http:      httpClient,
		baseURL:   base,
		apiKey:    opts.APIKey,
		batchSize: opts.BatchSize,
		pageSize:  opts.PageSize,
		log:       log,
	}, nil
}

// BatchSize is the number of records or ids sent per batch request.
func (c *Client) BatchSize() int {
	return c.batchSize
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusRequestEntityTooLarge:
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// do sends body as JSON and decodes a successful response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path}).String()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create a new request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Message:    errorMessage(msg),
		}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", method, endpoint, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty response from %s %s", method, endpoint)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, endpoint, err)
	}
	return nil
}

// leveledLogger routes retryablehttp's own logging into zap.
type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}
