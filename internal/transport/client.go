// Package transport executes HTTP calls against the model service with a
// bounded retry policy and decodes line-delimited JSON streams.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4096

// RetryPolicy bounds the attempts made for one call.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns three attempts with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Request describes one logical call. Body is replayed on every attempt.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Stream  bool          // keep the body open for incremental reads
	Timeout time.Duration // per attempt; for streams it covers connect and headers only

	// MaxBodyBytes caps how much of a buffered body is read; the rest is
	// discarded unread and Response.Truncated is set. Zero means no cap.
	MaxBodyBytes int64
}

// Client issues requests with retry on connection failures, timeouts and 5xx.
type Client struct {
	http   *http.Client
	policy RetryPolicy
	logger zerolog.Logger
}

// NewClient creates a Client. A nil httpClient uses a client without a global timeout;
// per-call timeouts come from Request.Timeout.
func NewClient(httpClient *http.Client, policy RetryPolicy, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Client{
		http:   httpClient,
		policy: policy,
		logger: logger,
	}
}

// PostWithRetry JSON-encodes body and POSTs it to url.
func (c *Client) PostWithRetry(ctx context.Context, url string, body any, stream bool, timeout time.Duration) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "POST " + url, Err: fmt.Errorf("encode request body: %w", err)}
	}
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     url,
		Header:  http.Header{"Content-Type": []string{"application/json"}},
		Body:    data,
		Stream:  stream,
		Timeout: timeout,
	})
}

// GetWithRetry issues a GET to url with the same retry semantics as PostWithRetry.
func (c *Client) GetWithRetry(ctx context.Context, url string, stream bool, timeout time.Duration) (*Response, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodGet,
		URL:     url,
		Stream:  stream,
		Timeout: timeout,
	})
}

// Do executes req, retrying retryable failures up to the policy's attempt limit
// with exponential backoff. A 4xx response or caller cancellation ends the call
// immediately. When attempts run out the last error is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	op := req.Method + " " + req.URL

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		resp, err := c.attempt(ctx, req, op)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.policy.InitialInterval
	b.MaxInterval = c.policy.MaxInterval

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("retry_in", next).Msg("request failed, retrying")
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		var tErr *Error
		if !errors.As(err, &tErr) {
			// Cancelled while waiting between attempts.
			err = &Error{Kind: KindUnknown, Op: op, Err: err}
		}
		c.logger.Debug().Err(err).Str("op", op).Int("attempts", attempt).Msg("request failed")
		return nil, err
	}
	return resp, nil
}

// attempt performs a single HTTP exchange.
func (c *Client) attempt(parent context.Context, req Request, op string) (*Response, error) {
	ctx, cancel := context.WithCancelCause(parent)
	var timer *time.Timer
	if req.Timeout > 0 {
		timer = time.AfterFunc(req.Timeout, func() { cancel(ErrRequestTimeout) })
	}
	release := func() {
		if timer != nil {
			timer.Stop()
		}
		cancel(nil)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		release()
		return nil, &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		release()
		return nil, classify(ctx, op, err)
	}

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		release()
		return nil, &Error{Kind: KindHTTP, Op: op, Status: resp.StatusCode, Body: string(snippet)}
	}

	if req.Stream {
		// Headers arrived; the stream may now stay open as long as the server keeps talking.
		if timer != nil {
			timer.Stop()
		}
		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			op:         op,
			ctx:        ctx,
			body:       resp.Body,
			release:    release,
			logger:     c.logger,
		}, nil
	}

	var src io.Reader = resp.Body
	if req.MaxBodyBytes > 0 {
		src = io.LimitReader(resp.Body, req.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(src)
	_ = resp.Body.Close()
	if err != nil {
		cerr := classify(ctx, op, err)
		release()
		return nil, cerr
	}
	release()

	truncated := false
	if req.MaxBodyBytes > 0 && int64(len(data)) > req.MaxBodyBytes {
		data = data[:req.MaxBodyBytes]
		truncated = true
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Truncated:  truncated,
		op:         op,
		data:       data,
		buffered:   true,
		logger:     c.logger,
	}, nil
}

// classify maps a low-level error to the transport taxonomy.
// ctx is the per-attempt context whose cancellation cause marks a timeout.
func classify(ctx context.Context, op string, err error) *Error {
	if errors.Is(context.Cause(ctx), ErrRequestTimeout) {
		return &Error{Kind: KindTimeout, Op: op, Err: ErrRequestTimeout}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindConnection, Op: op, Err: err}
}
