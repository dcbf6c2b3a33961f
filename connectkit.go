// Package connectkit is an embeddable SDK for connecting third-party
// data-source accounts to a content-ingestion backend, browsing their
// remote files, and triggering server-side sync jobs. It holds state and
// talks to the backend; rendering is the caller's concern.
package connectkit

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sourcehub/connectkit/pkg/browse"
	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/connect"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

// Config is the caller-supplied session configuration.
type Config struct {
	Environment protocol.Environment
	// BaseURL overrides the environment's API origin when set.
	BaseURL string

	// TokenFetcher issues access tokens. Required. Token refresh policy is
	// entirely the caller's; the SDK only invokes it on startup and once
	// per 401.
	TokenFetcher client.TokenFetcher

	Integrations integrations.Config
	Hooks        protocol.Hooks

	// WindowOpener handles the OAuth popup. Nil means headless logging.
	WindowOpener connect.WindowOpener

	// PageSize for listing calls. 0 uses the server default.
	PageSize int

	// ListRequestsPerSecond throttles listing bursts. 0 disables.
	ListRequestsPerSecond float64
}

// Session is one configured connection to the ingestion backend.
type Session struct {
	client     *client.Client
	directory  *integrations.Directory
	controller *connect.Controller
	hooks      protocol.Hooks
	pageSize   int

	mu            sync.Mutex
	whiteLabeling *protocol.WhiteLabelingResponse
}

// New builds a session. No network calls happen until Init.
func New(cfg Config) (*Session, error) {
	c, err := client.New(client.Config{
		BaseURL:               cfg.BaseURL,
		Environment:           cfg.Environment,
		TokenFetcher:          cfg.TokenFetcher,
		ListRequestsPerSecond: cfg.ListRequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	dir := integrations.NewDirectory(cfg.Integrations)
	return &Session{
		client:     c,
		directory:  dir,
		controller: connect.NewController(c, dir, cfg.Hooks, cfg.WindowOpener),
		hooks:      cfg.Hooks,
		pageSize:   cfg.PageSize,
	}, nil
}

// Init fetches the initial access token and the organization's
// white-labeling data.
func (s *Session) Init(ctx context.Context) error {
	if err := s.client.EnsureToken(ctx); err != nil {
		return err
	}

	wl, err := s.client.WhiteLabeling(ctx)
	if err != nil {
		// Branding is cosmetic; a failed fetch does not block the session.
		logging.Warn("white labeling fetch failed", logging.Err(err))
		return nil
	}

	s.mu.Lock()
	s.whiteLabeling = wl
	s.mu.Unlock()
	return nil
}

// Directory returns the merged integration directory.
func (s *Session) Directory() *integrations.Directory {
	return s.directory
}

// Controller returns the connection-flow controller.
func (s *Session) Controller() *connect.Controller {
	return s.controller
}

// Client returns the underlying API client.
func (s *Session) Client() *client.Client {
	return s.client
}

// NewBrowser returns a file browser bound to this session's client.
func (s *Session) NewBrowser() *browse.Browser {
	return browse.NewBrowser(s.client, s.pageSize)
}

// NewFiles returns a synced-files view for a connected data source.
func (s *Session) NewFiles(dataSourceID int) *browse.Files {
	f := browse.NewFiles(s.client, dataSourceID, s.pageSize)
	f.SetHooks(s.hooks)
	return f
}

// WhiteLabeling returns the branding data fetched by Init, or nil.
func (s *Session) WhiteLabeling() *protocol.WhiteLabelingResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whiteLabeling
}

// RevokeAccount disconnects a data source and emits a CANCEL event.
func (s *Session) RevokeAccount(ctx context.Context, integrationID string, dataSourceID int) error {
	if err := s.client.RevokeAccess(ctx, dataSourceID); err != nil {
		return err
	}
	s.hooks.Success(protocol.Event{
		Status:      http.StatusOK,
		Action:      protocol.EventCancel,
		Event:       protocol.EventCancel,
		Integration: integrationID,
	})
	return nil
}
