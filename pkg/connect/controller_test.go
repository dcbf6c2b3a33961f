package connect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
	"github.com/sourcehub/connectkit/pkg/retry"
)

func TestMain(m *testing.M) {
	logging.Nop()
	os.Exit(m.Run())
}

// eventLog collects hook invocations for assertions.
type eventLog struct {
	mu       sync.Mutex
	success  []protocol.Event
	failures []protocol.Event
}

func (l *eventLog) hooks() protocol.Hooks {
	return protocol.Hooks{
		OnSuccess: func(e protocol.Event) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.success = append(l.success, e)
		},
		OnError: func(e protocol.Event) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.failures = append(l.failures, e)
		},
	}
}

func (l *eventLog) lastSuccess(t *testing.T) protocol.Event {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.success) == 0 {
		t.Fatal("no success events recorded")
	}
	return l.success[len(l.success)-1]
}

func (l *eventLog) lastFailure(t *testing.T) protocol.Event {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.failures) == 0 {
		t.Fatal("no error events recorded")
	}
	return l.failures[len(l.failures)-1]
}

func testController(t *testing.T, handler http.Handler, cfg integrations.Config) (*Controller, *eventLog, *LogWindowOpener) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := client.New(client.Config{
		BaseURL: ts.URL,
		TokenFetcher: func(context.Context) (string, error) {
			return "test-token", nil
		},
	})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	log := &eventLog{}
	opener := &LogWindowOpener{}
	ctrl := NewController(c, integrations.NewDirectory(cfg), log.hooks(), opener)
	ctrl.SetResourceRetry(retry.FixedConfig(4, time.Millisecond))
	return ctrl, log, opener
}

func enabledConfig(ids ...string) integrations.Config {
	cfg := integrations.Config{}
	for _, id := range ids {
		cfg.EnabledIntegrations = append(cfg.EnabledIntegrations, integrations.Overrides{ID: id})
	}
	return cfg
}

func TestStartDispatchesByFlow(t *testing.T) {
	ctrl, _, _ := testController(t, http.NotFoundHandler(),
		enabledConfig("LOCAL_FILES", "CONFLUENCE", "BOX"))

	tests := []struct {
		id   string
		want State
	}{
		{"LOCAL_FILES", StateConnected},
		{"CONFLUENCE", StateCredentials},
		{"BOX", StateOAuthRedirect},
	}
	for _, tt := range tests {
		got, err := ctrl.Start(tt.id, ModeConnect)
		if err != nil {
			t.Fatalf("Start(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("Start(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	if _, err := ctrl.Start("GMAIL", ModeConnect); err == nil {
		t.Error("Start on a disabled integration should fail")
	}
}

func TestStartOAuth(t *testing.T) {
	var gotReq protocol.OAuthURLRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/integrations/oauth_url" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(protocol.OAuthURLResponse{
			OAuthURL: "https://accounts.example.com/authorize?state=abc",
		})
	})

	cfg := enabledConfig("BOX")
	cfg.UseRequestIDs = true
	ctrl, log, opener := testController(t, handler, cfg)

	if err := ctrl.StartOAuth(context.Background(), "BOX"); err != nil {
		t.Fatalf("StartOAuth: %v", err)
	}

	if gotReq.Service != "BOX" || !gotReq.ConnectingNewAccount {
		t.Errorf("oauth request = %+v", gotReq)
	}
	if gotReq.ChunkSize != integrations.DefaultChunkSize {
		t.Errorf("oauth chunk_size = %d, want default", gotReq.ChunkSize)
	}

	if opener.Last == nil || opener.Last.URL == "" {
		t.Fatal("window was not navigated")
	}
	if !strings.HasPrefix(opener.Last.URL, "https://accounts.example.com/") {
		t.Errorf("window URL = %q", opener.Last.URL)
	}

	e := log.lastSuccess(t)
	if e.Action != protocol.EventInitiate || e.Integration != "BOX" {
		t.Errorf("event = %+v, want INITIATE for BOX", e)
	}
	if e.RequestID == "" || strings.Contains(e.RequestID, "-") {
		t.Errorf("request id = %q, want dashless uuid", e.RequestID)
	}
	if gotReq.RequestID != e.RequestID {
		t.Error("request id in event and request must match")
	}
}

func TestStartOAuthFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Detail: "box is down"})
	})
	ctrl, log, opener := testController(t, handler, enabledConfig("BOX"))

	if err := ctrl.StartOAuth(context.Background(), "BOX"); err == nil {
		t.Fatal("expected error")
	}

	if ctrl.State("BOX") != StateFailed {
		t.Errorf("state = %v, want StateFailed", ctrl.State("BOX"))
	}
	// The window was opened before the URL fetch; the error lands in it.
	if opener.Last == nil || opener.Last.Message != "box is down" {
		t.Errorf("window message = %+v", opener.Last)
	}

	e := log.lastFailure(t)
	if e.Status != http.StatusServiceUnavailable {
		t.Errorf("event status = %d, want 503", e.Status)
	}
	if len(e.Data) != 1 || e.Data[0].Message != "box is down" {
		t.Errorf("event data = %v", e.Data)
	}
}

func TestSubmitCredentialsValidation(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})
	ctrl, _, _ := testController(t, handler, enabledConfig("S3"))

	err := ctrl.SubmitCredentials(context.Background(), "S3", map[string]string{
		"access_key": "AKIA123",
	})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Field != "access_key_secret" {
		t.Errorf("missing field = %q, want access_key_secret", ve.Field)
	}
	if requests != 0 {
		t.Error("validation failure must not reach the network")
	}
	if ctrl.State("S3") != StateInitial {
		t.Errorf("state = %v, want no transition", ctrl.State("S3"))
	}
}

func TestSubmitCredentialsRejection(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Detail: "invalid access key"})
	})
	ctrl, log, _ := testController(t, handler, enabledConfig("S3"))

	err := ctrl.SubmitCredentials(context.Background(), "S3", map[string]string{
		"access_key":        "AKIA123",
		"access_key_secret": "shhh",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	// The attempt stays live so the user can correct and retry.
	if ctrl.State("S3") != StateCredentials {
		t.Errorf("state = %v, want StateCredentials", ctrl.State("S3"))
	}
	fields := ctrl.FieldValues("S3")
	if fields["access_key"] != "AKIA123" {
		t.Error("non-secret field should be preserved")
	}
	if _, ok := fields["access_key_secret"]; ok {
		t.Error("secret field must be cleared after a rejection")
	}

	e := log.lastFailure(t)
	if e.Status != http.StatusUnprocessableEntity || e.Data[0].Message != "invalid access key" {
		t.Errorf("error event = %+v", e)
	}
}

func TestSubmitCredentialsSuccess(t *testing.T) {
	var body map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/integrations/s3" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})
	ctrl, log, _ := testController(t, handler, enabledConfig("S3"))

	err := ctrl.SubmitCredentials(context.Background(), "S3", map[string]string{
		"access_key":        "AKIA123",
		"access_key_secret": "shhh",
	})
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}

	if ctrl.State("S3") != StateConnected {
		t.Errorf("state = %v, want StateConnected", ctrl.State("S3"))
	}
	// Credential fields are flattened into the settings object.
	if body["access_key"] != "AKIA123" {
		t.Errorf("body access_key = %v", body["access_key"])
	}
	if body["chunk_size"] != float64(integrations.DefaultChunkSize) {
		t.Errorf("body chunk_size = %v", body["chunk_size"])
	}

	e := log.lastSuccess(t)
	if e.Action != protocol.EventInitiate {
		t.Errorf("event action = %v, want INITIATE", e.Action)
	}
}

func TestFreshdeskDomainNormalized(t *testing.T) {
	var body map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})
	ctrl, _, _ := testController(t, handler, enabledConfig("FRESHDESK"))

	err := ctrl.SubmitCredentials(context.Background(), "FRESHDESK", map[string]string{
		"domain":  "https://www.acme.freshdesk.com/",
		"api_key": "key-1",
	})
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	if body["domain"] != "acme.freshdesk.com" {
		t.Errorf("domain sent = %v, want acme.freshdesk.com", body["domain"])
	}
}

func TestResourceSelectionFlow(t *testing.T) {
	var repoCalls int
	var gotSync protocol.SyncReposRequest

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/integrations/github":
			w.WriteHeader(http.StatusOK)
		case "/integrations/github/repos":
			repoCalls++
			// Account provisioning lags; the first pages come back empty.
			if repoCalls < 3 {
				json.NewEncoder(w).Encode([]*models.Repo{})
				return
			}
			json.NewEncoder(w).Encode([]*models.Repo{
				{ID: "1", Name: "octocat/hello"},
				{ID: "2", Name: "octocat/world"},
			})
		case "/integrations/github/sync_repos":
			json.NewDecoder(r.Body).Decode(&gotSync)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	cfg := integrations.Config{
		EnabledIntegrations: []integrations.Overrides{
			{ID: "GITHUB", SyncSourceItems: integrations.Ptr(false)},
		},
	}
	ctrl, log, _ := testController(t, handler, cfg)
	ctx := context.Background()

	err := ctrl.SubmitCredentials(ctx, "GITHUB", map[string]string{
		"username":     "octocat",
		"access_token": "ghp_test",
	})
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	if ctrl.State("GITHUB") != StateResourceSelection {
		t.Fatalf("state = %v, want StateResourceSelection", ctrl.State("GITHUB"))
	}

	repos, err := ctrl.ListResources(ctx, "GITHUB", "octocat", 1, 25)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("repos = %v", repos)
	}
	if repoCalls != 3 {
		t.Errorf("repo fetches = %d, want 3 (two empty, one full)", repoCalls)
	}

	if err := ctrl.SubmitResources(ctx, "GITHUB", 9, []string{"octocat/hello"}); err != nil {
		t.Fatalf("SubmitResources: %v", err)
	}
	if ctrl.State("GITHUB") != StateConnected {
		t.Errorf("state = %v, want StateConnected", ctrl.State("GITHUB"))
	}
	if gotSync.DataSourceID != 9 || len(gotSync.Repos) != 1 {
		t.Errorf("sync request = %+v", gotSync)
	}
	if e := log.lastSuccess(t); e.Action != protocol.EventAdd {
		t.Errorf("final event = %v, want ADD", e.Action)
	}
}

func TestResourceRetryExhausts(t *testing.T) {
	var repoCalls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/integrations/github":
			w.WriteHeader(http.StatusOK)
		case "/integrations/github/repos":
			repoCalls++
			json.NewEncoder(w).Encode([]*models.Repo{})
		}
	})

	cfg := integrations.Config{
		EnabledIntegrations: []integrations.Overrides{
			{ID: "GITHUB", SyncSourceItems: integrations.Ptr(false)},
		},
	}
	ctrl, _, _ := testController(t, handler, cfg)
	ctx := context.Background()

	if err := ctrl.SubmitCredentials(ctx, "GITHUB", map[string]string{
		"username": "octocat", "access_token": "ghp_test",
	}); err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}

	if _, err := ctrl.ListResources(ctx, "GITHUB", "octocat", 1, 25); err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
	if repoCalls != 4 {
		t.Errorf("repo fetches = %d, want the 4-attempt bound", repoCalls)
	}
}

func TestListResourcesRequiresSelectionState(t *testing.T) {
	ctrl, _, _ := testController(t, http.NotFoundHandler(), enabledConfig("GITHUB"))
	if _, err := ctrl.ListResources(context.Background(), "GITHUB", "octocat", 1, 25); err == nil {
		t.Error("ListResources outside RESOURCE_SELECTION should fail")
	}
}

func TestRequestIDScopedPerIntegration(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(protocol.OAuthURLResponse{OAuthURL: "https://example.com"})
	})
	cfg := enabledConfig("BOX", "NOTION")
	cfg.UseRequestIDs = true
	ctrl, _, _ := testController(t, handler, cfg)
	ctx := context.Background()

	if err := ctrl.StartOAuth(ctx, "BOX"); err != nil {
		t.Fatalf("StartOAuth BOX: %v", err)
	}
	if err := ctrl.StartOAuth(ctx, "NOTION"); err != nil {
		t.Fatalf("StartOAuth NOTION: %v", err)
	}

	boxID, ok := ctrl.RequestID("BOX")
	if !ok || boxID == "" {
		t.Fatal("BOX attempt should carry a request id")
	}
	notionID, _ := ctrl.RequestID("NOTION")
	if boxID == notionID {
		t.Error("request ids must be scoped per integration attempt")
	}
}

func TestRequestIDDisabled(t *testing.T) {
	ctrl, _, _ := testController(t, http.NotFoundHandler(), enabledConfig("CONFLUENCE"))
	ctrl.Start("CONFLUENCE", ModeConnect)
	if _, ok := ctrl.RequestID("CONFLUENCE"); ok {
		t.Error("request ids should be absent when disabled")
	}
}

func TestSubmitResourcesRequiresEnabledIntegration(t *testing.T) {
	requests := 0
	ctrl, log, _ := testController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}), enabledConfig("GITHUB"))

	err := ctrl.SubmitResources(context.Background(), "GITLAB", 9, []string{"repo-1"})
	if err == nil {
		t.Fatal("SubmitResources for a disabled integration should fail")
	}
	if !strings.Contains(err.Error(), "not enabled") {
		t.Errorf("err = %v, want a not-enabled error", err)
	}
	if requests != 0 {
		t.Errorf("requests = %d, want 0", requests)
	}
	if len(log.success) != 0 {
		t.Error("no events should fire for a rejected submission")
	}
}
