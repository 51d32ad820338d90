package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"barstock/internal"
)

const maxBodyBytes = 32 << 20

type Client struct {
	httpClient  *http.Client
	limiter     *RateLimiter
	maxAttempts int
	backoffBase time.Duration
}

type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

func NewClient(timeout time.Duration, requestsPerSecond, maxAttempts int) *Client {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     NewRateLimiter(requestsPerSecond),
		maxAttempts: maxAttempts,
		backoffBase: 250 * time.Millisecond,
	}
}

// Get downloads url, retrying transport failures and 429/5xx with
// exponential backoff. Any final failure is a *internal.FetchError.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	var lastErr error
	lastStatus := 0
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return Response{}, &internal.FetchError{Source: url, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Response{}, &internal.FetchError{Source: url, Err: err}
		}
		req.Header.Set("Accept", "text/csv, text/tab-separated-values, text/html, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return Response{}, &internal.FetchError{Source: url, Err: ctx.Err()}
			}
			lastErr, lastStatus = err, 0
			if err := c.backoff(ctx, attempt); err != nil {
				return Response{}, &internal.FetchError{Source: url, Err: err}
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr, lastStatus = readErr, 0
			if err := c.backoff(ctx, attempt); err != nil {
				return Response{}, &internal.FetchError{Source: url, Err: err}
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			lastStatus = resp.StatusCode
			if isRetryableStatus(resp.StatusCode) {
				if err := c.backoff(ctx, attempt); err != nil {
					return Response{}, &internal.FetchError{Source: url, StatusCode: lastStatus, Err: err}
				}
				continue
			}
			return Response{}, &internal.FetchError{Source: url, StatusCode: lastStatus, Err: lastErr}
		}

		return Response{
			URL:         url,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return Response{}, &internal.FetchError{Source: url, StatusCode: lastStatus, Err: lastErr}
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	if attempt >= c.maxAttempts {
		return nil
	}
	wait := c.backoffBase*time.Duration(1<<(attempt-1)) + time.Duration(rand.Intn(100))*time.Millisecond/10
	return sleepCtx(ctx, wait)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
