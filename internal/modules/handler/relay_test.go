package handler

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artel-team/artel/internal/infra/httpclient"
	"github.com/artel-team/artel/internal/push"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const relaySecret = "s3cret"

type gateway struct {
	server      *httptest.Server
	calls       int32
	tokenStatus int
	tokenBody   string
	sendStatus  int
	sendBody    string
}

func newGateway(t *testing.T) *gateway {
	g := &gateway{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"ya29.relay","expires_in":3600}`,
		sendStatus:  http.StatusOK,
		sendBody:    `{"name":"projects/p1/messages/42"}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&g.calls, 1)
		w.WriteHeader(g.tokenStatus)
		_, _ = io.WriteString(w, g.tokenBody)
	})
	mux.HandleFunc("/v1/projects/p1/messages:send", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&g.calls, 1)
		w.WriteHeader(g.sendStatus)
		_, _ = io.WriteString(w, g.sendBody)
	})
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func newRelayEngine(t *testing.T, g *gateway) *gin.Engine {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	sa := &push.ServiceAccount{
		ProjectID:   "p1",
		ClientEmail: "relay@p1.iam.gserviceaccount.com",
		PrivateKey:  string(pemKey),
		TokenURI:    g.server.URL + "/token",
	}
	hc := httpclient.New(5*time.Second, zap.NewNop())
	sender := push.NewClient(sa, push.NewTokenSource(sa, hc), hc, g.server.URL)

	r := setupRouter(uuid.Nil)
	h := NewRelayHandler(relaySecret, sender, nil, zap.NewNop())
	r.Any("/", h.Send)
	return r
}

func relayRequest(method, secret, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(PushSecretHeader, secret)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRelayHandler_RejectsBadSecretWithoutUpstreamCalls(t *testing.T) {
	g := newGateway(t)
	r := newRelayEngine(t, g)

	for _, secret := range []string{"", "wrong", relaySecret + "x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, relayRequest(http.MethodPost, secret, `{"topic":"user_1","title":"t","body":"b"}`))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", w.Body.String())
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&g.calls))
}

func TestRelayHandler_Send(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		tweak      func(*gateway)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   "Method Not Allowed",
		},
		{
			name:       "invalid json",
			method:     http.MethodPost,
			body:       `{"topic":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid JSON",
		},
		{
			name:       "missing fields",
			method:     http.MethodPost,
			body:       `{"topic":"user_1","title":"hi"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing fields: topic/title/body",
		},
		{
			name:   "token endpoint failure",
			method: http.MethodPost,
			body:   `{"topic":"user_1","title":"hi","body":"there"}`,
			tweak: func(g *gateway) {
				g.tokenStatus = http.StatusBadRequest
				g.tokenBody = `{"error":"invalid_grant"}`
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `OAuth token error: 400 {"error":"invalid_grant"}`,
		},
		{
			name:       "token response without access_token",
			method:     http.MethodPost,
			body:       `{"topic":"user_1","title":"hi","body":"there"}`,
			tweak:      func(g *gateway) { g.tokenBody = `{"expires_in":3600}` },
			wantStatus: http.StatusBadGateway,
			wantBody:   "No access_token in response",
		},
		{
			name:   "gateway failure",
			method: http.MethodPost,
			body:   `{"topic":"user_1","title":"hi","body":"there"}`,
			tweak: func(g *gateway) {
				g.sendStatus = http.StatusNotFound
				g.sendBody = `{"error":{"status":"NOT_FOUND"}}`
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `FCM error: 404 {"error":{"status":"NOT_FOUND"}}`,
		},
		{
			name:       "success returns gateway body",
			method:     http.MethodPost,
			body:       `{"topic":"user_1","title":"hi","body":"there","data":{"chat_id":"c1"}}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"name":"projects/p1/messages/42"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t)
			if tt.tweak != nil {
				tt.tweak(g)
			}
			r := newRelayEngine(t, g)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, relayRequest(tt.method, relaySecret, tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRelayHandler_MissingServiceAccount(t *testing.T) {
	r := setupRouter(uuid.Nil)
	h := NewRelayHandler(relaySecret, nil, push.ErrNoServiceAccount, zap.NewNop())
	r.POST("/", h.Send)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, relayRequest(http.MethodPost, relaySecret, `{"topic":"user_1","title":"hi","body":"there"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Service account missing project_id/client_email/private_key", w.Body.String())
}
