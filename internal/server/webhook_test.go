package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/randevu/internal/agent"
	"github.com/gosuda/randevu/internal/channel"
	"github.com/gosuda/randevu/internal/config"
	"github.com/gosuda/randevu/internal/domain"
	"github.com/gosuda/randevu/internal/server"
)

type fakeTenantRepo struct {
	byAccount map[string]*domain.Tenant
}

func (r *fakeTenantRepo) Create(context.Context, *domain.Tenant) error { return nil }

func (r *fakeTenantRepo) GetByID(context.Context, uuid.UUID) (*domain.Tenant, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeTenantRepo) GetByChannelAccount(_ context.Context, accountID string) (*domain.Tenant, error) {
	t, ok := r.byAccount[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *fakeTenantRepo) List(context.Context) ([]*domain.Tenant, error) { return nil, nil }

type fakeResponder struct {
	mu    sync.Mutex
	calls []string
	reply agent.Reply
	err   error
}

func (f *fakeResponder) HandleMessage(_ context.Context, _ *domain.Tenant, _ string, text string) (agent.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	return f.reply, f.err
}

func (f *fakeResponder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeDeduper) SetNX(_ context.Context, key string, _ []byte, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeSender struct {
	mu     sync.Mutex
	texts  []string
	images [][]byte
}

func (f *fakeSender) Platform() string { return "slack" }

func (f *fakeSender) SendText(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendImage(_ context.Context, _ string, image []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, image)
	return nil
}

const testToken = "hook-secret"

func newTestServer(responder *fakeResponder, sender channel.Sender) (*server.Server, *domain.Tenant) {
	cfg := &config.Config{}
	cfg.Channel.WebhookToken = testToken
	cfg.Server.Addr = ":0"

	tenant := &domain.Tenant{ID: uuid.New(), Name: "Kuaför Ayşe", ChannelAccountID: "acct-1"}
	tenants := &fakeTenantRepo{byAccount: map[string]*domain.Tenant{"acct-1": tenant}}

	senders := map[string]channel.Sender{}
	if sender != nil {
		senders["slack"] = sender
	}

	return server.New(cfg, tenants, responder, &fakeDeduper{}, senders), tenant
}

func postEvent(t *testing.T, handler http.Handler, token string, event channel.Event) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(event)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/hooks/slack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDeliversReply(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{reply: agent.Reply{Text: "Randevunuz alındı."}}
	sender := &fakeSender{}
	srv, _ := newTestServer(responder, sender)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID:  "user-1",
		AccountID: "acct-1",
		MessageID: "m1",
		Text:      "randevu istiyorum",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"randevu istiyorum"}, responder.calls)
	assert.Equal(t, []string{"Randevunuz alındı."}, sender.texts)
}

func TestWebhookReturnsReplyWithoutSender(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{reply: agent.Reply{Text: "Tamamdır."}}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "merhaba",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Reply  string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Tamamdır.", resp.Reply)
}

func TestWebhookRejectsBadToken(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), "wrong", channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "merhaba",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postEvent(t, srv.Handler(), "", channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "merhaba",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, responder.callCount())
}

func TestWebhookDeduplicatesByMessageID(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{reply: agent.Reply{Text: "ok"}}
	srv, _ := newTestServer(responder, nil)

	event := channel.Event{SenderID: "user-1", AccountID: "acct-1", MessageID: "m1", Text: "merhaba"}

	rec := postEvent(t, srv.Handler(), testToken, event)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postEvent(t, srv.Handler(), testToken, event)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp.Status)
	assert.Equal(t, 1, responder.callCount())
}

func TestWebhookUnknownAccount(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-unknown", Text: "merhaba",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, responder.callCount())
}

func TestWebhookIgnoresEmptyText(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "   ",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, responder.callCount())
}

func TestWebhookHandlerErrorIs500(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{err: errors.New("session store down")}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "merhaba",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookImageReplyUsesSendImage(t *testing.T) {
	t.Parallel()

	image := []byte{0x89, 'P', 'N', 'G'}
	responder := &fakeResponder{reply: agent.Reply{Text: "takvim ekte", Image: image}}
	sender := &fakeSender{}
	srv, _ := newTestServer(responder, sender)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "haftalık takvim",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.images, 1)
	assert.Equal(t, image, sender.images[0])
	assert.Empty(t, sender.texts)
}

func TestWebhookImageReplyWithoutSenderInBody(t *testing.T) {
	t.Parallel()

	image := []byte{0x89, 'P', 'N', 'G'}
	responder := &fakeResponder{reply: agent.Reply{Text: "takvim ekte", Image: image}}
	srv, _ := newTestServer(responder, nil)

	rec := postEvent(t, srv.Handler(), testToken, channel.Event{
		SenderID: "user-1", AccountID: "acct-1", Text: "haftalık takvim",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Reply  string `json:"reply"`
		Image  []byte `json:"image"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "takvim ekte", resp.Reply)
	assert.Equal(t, image, resp.Image, "image must not be dropped when no transport is registered")
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(&fakeResponder{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
