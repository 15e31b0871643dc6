package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client is a small JSON/form HTTP client with OpenTelemetry instrumentation.
// Non-2xx responses are returned, not turned into errors: callers decide how
// to surface the upstream status and body.
type Client struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Response is a fully read upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

func New(timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: log,
	}
}

func (c *Client) Do(ctx context.Context, method, endpoint string, header http.Header, body io.Reader) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: respBody}
	if !out.OK() {
		c.Logger.Debug("upstream request failed",
			zap.String("method", method),
			zap.String("url", redact(endpoint)),
			zap.Int("status_code", resp.StatusCode))
	}
	return out, nil
}

// PostJSON marshals v with sonic and posts it.
func (c *Client) PostJSON(ctx context.Context, endpoint string, header http.Header, v interface{}) (*Response, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	return c.Do(ctx, http.MethodPost, endpoint, h, bytes.NewReader(b))
}

func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(ctx, http.MethodPost, endpoint, h, strings.NewReader(form.Encode()))
}

// redact drops the query string so tokens in URLs never reach the logs.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
