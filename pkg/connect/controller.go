// Package connect runs the per-integration connection flows: OAuth
// redirects, credential submissions, and the secondary resource-selection
// step some connectors require before a sync can start.
package connect

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
	"github.com/sourcehub/connectkit/pkg/retry"
)

// State is where an integration's connection attempt currently stands.
type State string

const (
	StateInitial           State = "INITIAL"
	StateCredentials       State = "CREDENTIALS"
	StateResourceSelection State = "RESOURCE_SELECTION"
	StateOAuthRedirect     State = "OAUTH_REDIRECT"
	StateConnected         State = "CONNECTED"
	StateFailed            State = "FAILED"
)

// Mode is what the attempt is for.
type Mode string

const (
	ModeConnect Mode = "CONNECT"
	ModeUpload  Mode = "UPLOAD"
	ModeResync  Mode = "RESYNC"
)

// ValidationError reports a missing required credential field. No network
// call is made and no state transition happens.
type ValidationError struct {
	Field string
	Label string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

type attempt struct {
	state     State
	mode      Mode
	requestID string
	fields    map[string]string
}

// Controller decides and executes the connection flow for each enabled
// integration. One attempt is tracked per integration id; a second
// integration's attempt never collides with the first.
type Controller struct {
	client  *client.Client
	dir     *integrations.Directory
	hooks   protocol.Hooks
	windows WindowOpener

	// resourceRetry bounds the repo-list fetch, which can come up empty
	// while the backend is still provisioning the new account.
	resourceRetry retry.Config

	mu       sync.Mutex
	attempts map[string]*attempt
}

// NewController creates a controller. opener may be nil, in which case OAuth
// flows use LogWindows.
func NewController(c *client.Client, dir *integrations.Directory, hooks protocol.Hooks, opener WindowOpener) *Controller {
	if opener == nil {
		opener = &LogWindowOpener{}
	}
	return &Controller{
		client:        c,
		dir:           dir,
		hooks:         hooks,
		windows:       opener,
		resourceRetry: retry.FixedConfig(4, 5*time.Second),
		attempts:      make(map[string]*attempt),
	}
}

// SetResourceRetry overrides the bounded retry used for resource listing.
func (c *Controller) SetResourceRetry(cfg retry.Config) {
	c.resourceRetry = cfg
}

// State returns the current state for an integration.
func (c *Controller) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.attempts[id]; ok {
		return a.state
	}
	return StateInitial
}

// RequestID returns the idempotency token of the integration's current
// attempt, if request-id tracking is enabled and an attempt exists.
func (c *Controller) RequestID(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.attempts[id]; ok && a.requestID != "" {
		return a.requestID, true
	}
	return "", false
}

// FieldValues returns the preserved credential inputs for an integration so
// a retry after a server rejection keeps the non-secret fields.
func (c *Controller) FieldValues(id string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string)
	if a, ok := c.attempts[id]; ok {
		for k, v := range a.fields {
			out[k] = v
		}
	}
	return out
}

// begin starts (or restarts) an attempt for the integration. Exactly one
// request id is generated per attempt, not per retry within it.
func (c *Controller) begin(id string, mode Mode, state State) *attempt {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.attempts[id]
	if ok && a.state != StateInitial && a.state != StateFailed && a.state != StateConnected {
		a.state = state
		return a
	}

	a = &attempt{state: state, mode: mode, fields: make(map[string]string)}
	if c.dir.UseRequestIDs() {
		a.requestID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	c.attempts[id] = a
	return a
}

func (c *Controller) setState(id string, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.attempts[id]; ok {
		a.state = s
	}
}

// Start begins a connection attempt and reports the next step the caller
// must drive: StateCredentials for multi-step connectors, StateOAuthRedirect
// otherwise. Upload connectors have no connection step.
func (c *Controller) Start(id string, mode Mode) (State, error) {
	integration, ok := c.dir.Resolve(id)
	if !ok {
		return StateInitial, fmt.Errorf("integration %q is not enabled", id)
	}
	if integration.Flow == integrations.FlowUpload {
		a := c.begin(id, mode, StateConnected)
		return a.state, nil
	}
	if integration.MultiStep {
		a := c.begin(id, mode, StateCredentials)
		return a.state, nil
	}
	a := c.begin(id, mode, StateOAuthRedirect)
	return a.state, nil
}

// StartOAuth runs the single-step OAuth flow: open the external window
// immediately, then fetch the redirect URL and navigate the window to it.
// On failure the error is written into the already-open window and the
// attempt is left in StateFailed.
func (c *Controller) StartOAuth(ctx context.Context, id string) error {
	integration, ok := c.dir.Resolve(id)
	if !ok {
		return fmt.Errorf("integration %q is not enabled", id)
	}

	a := c.begin(id, ModeConnect, StateOAuthRedirect)

	window, err := c.windows.Open()
	if err != nil {
		c.setState(id, StateFailed)
		return fmt.Errorf("open oauth window: %w", err)
	}

	req := protocol.OAuthURLRequest{
		Service:              integration.DataSourceType,
		Tags:                 c.dir.Tags(),
		ConnectingNewAccount: true,
		RequestID:            a.requestID,
		SettingsBundle:       integration.Settings(),
	}

	url, err := c.client.OAuthURL(ctx, req)
	if err != nil {
		c.setState(id, StateFailed)
		window.ShowError(connectionErrorMessage(err))
		c.emitError(id, err)
		return err
	}

	c.hooks.Success(protocol.Event{
		Status:      http.StatusOK,
		Action:      protocol.EventInitiate,
		Event:       protocol.EventInitiate,
		Integration: integration.DataSourceType,
		RequestID:   a.requestID,
	})

	if err := window.Navigate(url); err != nil {
		c.setState(id, StateFailed)
		return fmt.Errorf("navigate oauth window: %w", err)
	}
	return nil
}

// SubmitCredentials validates and POSTs the credential fields for a
// multi-step connector. Validation failures make no network call and cause
// no transition. A server rejection keeps the attempt in StateCredentials
// with non-secret fields preserved and secret fields cleared, so the user
// can retry within the same attempt.
func (c *Controller) SubmitCredentials(ctx context.Context, id string, values map[string]string) error {
	integration, ok := c.dir.Resolve(id)
	if !ok {
		return fmt.Errorf("integration %q is not enabled", id)
	}
	if integration.Endpoint == "" {
		return fmt.Errorf("integration %q has no credentials endpoint", id)
	}

	for _, field := range integration.Fields {
		if strings.TrimSpace(values[field.Name]) == "" {
			return &ValidationError{Field: field.Name, Label: field.Label}
		}
	}

	a := c.begin(id, ModeConnect, StateCredentials)

	fields := make(map[string]string, len(values))
	for name, value := range values {
		fields[name] = integration.NormalizeField(name, value)
	}
	c.mu.Lock()
	a.fields = fields
	c.mu.Unlock()

	c.hooks.Success(protocol.Event{
		Status:      http.StatusOK,
		Action:      protocol.EventInitiate,
		Event:       protocol.EventInitiate,
		Integration: integration.DataSourceType,
		RequestID:   a.requestID,
	})

	req := protocol.CredentialsRequest{
		Fields:         fields,
		Tags:           c.dir.Tags(),
		RequestID:      a.requestID,
		SettingsBundle: integration.Settings(),
	}

	if err := c.client.ConnectCredentials(ctx, integration.Endpoint, req); err != nil {
		c.clearSecretFields(id, integration)
		c.emitError(id, err)
		return err
	}

	settings := integration.Settings()
	if integration.Flow == integrations.FlowCredentialsThenResources && !settings.SyncSourceItems {
		c.setState(id, StateResourceSelection)
	} else {
		c.setState(id, StateConnected)
	}
	logging.Info("credentials accepted",
		logging.String("integration", integration.ID),
		logging.String("state", string(c.State(id))))
	return nil
}

func (c *Controller) clearSecretFields(id string, integration *integrations.Integration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attempts[id]
	if !ok {
		return
	}
	for _, field := range integration.Fields {
		if field.Secret {
			delete(a.fields, field.Name)
		}
	}
}

// ListResources fetches the secondary resource list for a connector in
// StateResourceSelection. The backend provisions the account
// asynchronously, so an empty page is retried with a fixed delay, up to the
// configured attempt bound.
func (c *Controller) ListResources(ctx context.Context, id, username string, page, perPage int) ([]*models.Repo, error) {
	if c.State(id) != StateResourceSelection {
		return nil, fmt.Errorf("integration %q is not selecting resources", id)
	}

	repos, err := retry.DoWithResult(ctx, c.resourceRetry, func() ([]*models.Repo, error) {
		repos, err := c.client.ListRepos(ctx, username, page, perPage)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		if len(repos) == 0 {
			return nil, retry.Retryable(fmt.Errorf("resource list for %s not ready", id))
		}
		return repos, nil
	})
	if err != nil {
		logging.Error("resource listing failed", logging.Err(err),
			logging.String("integration", id))
		return nil, err
	}
	return repos, nil
}

// SubmitResources submits the chosen resources for ingestion and completes
// the attempt.
func (c *Controller) SubmitResources(ctx context.Context, id string, dataSourceID int, resourceIDs []string) error {
	integration, ok := c.dir.Resolve(id)
	if !ok {
		return fmt.Errorf("integration %q is not enabled", id)
	}
	if c.State(id) != StateResourceSelection {
		return fmt.Errorf("integration %q is not selecting resources", id)
	}

	req := protocol.SyncReposRequest{
		DataSourceID: dataSourceID,
		Repos:        resourceIDs,
	}
	if err := c.client.SyncRepos(ctx, req); err != nil {
		c.emitError(id, err)
		return err
	}

	c.setState(id, StateConnected)
	c.hooks.Success(protocol.Event{
		Status:      http.StatusOK,
		Action:      protocol.EventAdd,
		Event:       protocol.EventAdd,
		Integration: integration.DataSourceType,
	})
	return nil
}

// emitError converts any failure into an onError event. Server rejections
// carry the backend's detail message; everything else gets a generic one.
func (c *Controller) emitError(id string, err error) {
	status := http.StatusBadRequest
	message := connectionErrorMessage(err)
	if ae, ok := client.AsAPIError(err); ok && ae.Status != 0 {
		status = ae.Status
	}

	c.hooks.Error(protocol.Event{
		Status:      status,
		Data:        []protocol.EventMessage{{Message: message}},
		Action:      protocol.EventError,
		Event:       protocol.EventError,
		Integration: id,
	})
}

func connectionErrorMessage(err error) string {
	if ae, ok := client.AsAPIError(err); ok && ae.Detail != "" {
		return ae.Detail
	}
	return "Error connecting your account. Please try again."
}
