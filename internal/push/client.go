package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/artel-team/artel/internal/infra/httpclient"
	"github.com/artel-team/artel/internal/telemetry"
)

// Notification is a topic message; Data values must be strings.
type Notification struct {
	Topic string            `json:"topic"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (n Notification) Valid() bool {
	return n.Topic != "" && n.Title != "" && n.Body != ""
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Topic        string            `json:"topic"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

// Sender delivers a notification and returns the gateway's raw response body.
type Sender interface {
	Send(ctx context.Context, n Notification) ([]byte, error)
}

// Client sends topic messages through the FCM HTTP v1 API.
type Client struct {
	sa      *ServiceAccount
	tokens  *TokenSource
	http    *httpclient.Client
	baseURL string
}

func NewClient(sa *ServiceAccount, tokens *TokenSource, hc *httpclient.Client, gatewayBaseURL string) *Client {
	return &Client{
		sa:      sa,
		tokens:  tokens,
		http:    hc,
		baseURL: strings.TrimRight(gatewayBaseURL, "/"),
	}
}

func (c *Client) Send(ctx context.Context, n Notification) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		telemetry.PushSends.WithLabelValues("token_error").Inc()
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.sa.ProjectID)
	resp, err := c.http.PostJSON(ctx, endpoint, http.Header{"Authorization": {"Bearer " + token}}, fcmRequest{
		Message: fcmMessage{
			Topic:        n.Topic,
			Notification: fcmNotification{Title: n.Title, Body: n.Body},
			Data:         n.Data,
		},
	})
	if err != nil {
		telemetry.PushSends.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	if !resp.OK() {
		telemetry.PushSends.WithLabelValues("rejected").Inc()
		return nil, &UpstreamError{Stage: "FCM", Status: resp.Status, Body: string(resp.Body)}
	}
	telemetry.PushSends.WithLabelValues("sent").Inc()
	return resp.Body, nil
}
