package push

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/artel-team/artel/internal/infra/httpclient"
)

// Messaging manages a device registration's topic memberships.
type Messaging interface {
	// Validate checks that the registration token is still known upstream.
	Validate(ctx context.Context, deviceToken string) error
	Subscribe(ctx context.Context, deviceToken, topic string) error
	Unsubscribe(ctx context.Context, deviceToken, topic string) error
}

// NopMessaging is used when no service account is configured.
type NopMessaging struct{}

func (NopMessaging) Validate(context.Context, string) error            { return nil }
func (NopMessaging) Subscribe(context.Context, string, string) error   { return nil }
func (NopMessaging) Unsubscribe(context.Context, string, string) error { return nil }

// IIDMessaging talks to the Instance ID server API.
type IIDMessaging struct {
	tokens  *TokenSource
	http    *httpclient.Client
	baseURL string
}

func NewIIDMessaging(tokens *TokenSource, hc *httpclient.Client, baseURL string) *IIDMessaging {
	return &IIDMessaging{tokens: tokens, http: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

type batchRequest struct {
	To                 string   `json:"to"`
	RegistrationTokens []string `json:"registration_tokens"`
}

func (m *IIDMessaging) headers(ctx context.Context) (http.Header, error) {
	token, err := m.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return http.Header{
		"Authorization":     {"Bearer " + token},
		"Access_token_auth": {"true"},
	}, nil
}

func (m *IIDMessaging) batch(ctx context.Context, op, deviceToken, topic string) error {
	h, err := m.headers(ctx)
	if err != nil {
		return err
	}
	resp, err := m.http.PostJSON(ctx, m.baseURL+"/iid/v1:"+op, h, batchRequest{
		To:                 "/topics/" + topic,
		RegistrationTokens: []string{deviceToken},
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &UpstreamError{Stage: "IID " + op, Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

func (m *IIDMessaging) Subscribe(ctx context.Context, deviceToken, topic string) error {
	return m.batch(ctx, "batchAdd", deviceToken, topic)
}

func (m *IIDMessaging) Unsubscribe(ctx context.Context, deviceToken, topic string) error {
	return m.batch(ctx, "batchRemove", deviceToken, topic)
}

func (m *IIDMessaging) Validate(ctx context.Context, deviceToken string) error {
	h, err := m.headers(ctx)
	if err != nil {
		return err
	}
	resp, err := m.http.Do(ctx, http.MethodGet, m.baseURL+"/iid/info/"+url.PathEscape(deviceToken), h, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &UpstreamError{Stage: "IID info", Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}
