// connectctl exercises the connectkit SDK from the command line:
// list the integration directory, browse a connected source's file tree,
// start connection flows, and manage synced files.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	connectkit "github.com/sourcehub/connectkit"
	"github.com/sourcehub/connectkit/pkg/browse"
	"github.com/sourcehub/connectkit/pkg/connect"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: connectctl <command> [args]

commands:
  integrations                     list enabled connectors
  browse <integration> <ds-id>     walk a connected source's file tree
  connect <integration> [k=v ...]  start a connection flow
  files <ds-id>                    list synced files
  resync <integration> <ds-id> <file-id>
  delete <ds-id> <file-id> [...]
  revoke <integration> <ds-id>
  upload <integration> <path> [...]`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := loadConfig()
	if err != nil {
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	session, err := connectkit.New(connectkit.Config{
		Environment:           cfg.Environment,
		BaseURL:               cfg.BaseURL,
		TokenFetcher:          tokenFetcher(cfg),
		PageSize:              cfg.PageSize,
		ListRequestsPerSecond: cfg.ListRPS,
		Integrations: integrations.Config{
			EnabledIntegrations: enabled(cfg.EnabledSources),
			Tags:                cfg.Tags,
		},
		Hooks: protocol.Hooks{
			OnSuccess: func(e protocol.Event) {
				logging.Info("event",
					zap.String("action", string(e.Action)),
					zap.String("integration", e.Integration),
					zap.String("request_id", e.RequestID))
			},
			OnError: func(e protocol.Event) {
				logging.Warn("event error",
					zap.Int("status", e.Status),
					zap.String("integration", e.Integration))
			},
		},
	})
	if err != nil {
		logging.Fatal("session setup failed", logging.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := session.Init(ctx); err != nil {
		logging.Fatal("session init failed", logging.Err(err))
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "integrations":
		err = runIntegrations(session)
	case "browse":
		err = runBrowse(ctx, session, args)
	case "connect":
		err = runConnect(ctx, session, args)
	case "files":
		err = runFiles(ctx, session, args)
	case "resync":
		err = runResync(ctx, session, args)
	case "delete":
		err = runDelete(ctx, session, args)
	case "revoke":
		err = runRevoke(ctx, session, args)
	case "upload":
		err = runUpload(ctx, session, args)
	default:
		usage()
	}
	if err != nil {
		logging.Fatal(cmd+" failed", logging.Err(err))
	}
}

func enabled(ids []string) []integrations.Overrides {
	out := make([]integrations.Overrides, 0, len(ids))
	for _, id := range ids {
		out = append(out, integrations.Overrides{ID: id})
	}
	return out
}

func tokenFetcher(cfg *config) func(context.Context) (string, error) {
	if cfg.AccessToken != "" {
		return func(context.Context) (string, error) {
			return cfg.AccessToken, nil
		}
	}
	return func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, "sh", "-c", cfg.TokenCmd).Output()
		if err != nil {
			return "", fmt.Errorf("token command: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}

func runIntegrations(s *connectkit.Session) error {
	dir := s.Directory()
	for _, id := range dir.IDs() {
		integ, _ := dir.Resolve(id)
		d := integ.Descriptor
		flow := string(d.Flow)
		fmt.Printf("%-14s %-20s %s\n", d.ID, d.Name, flow)
	}
	if wl := s.WhiteLabeling(); wl != nil && wl.RemoveBranding {
		fmt.Println("\nbranding removed for this organization")
	}
	return nil
}

func runBrowse(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 2 {
		usage()
	}
	dsID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("data source id %q: %w", args[1], err)
	}

	b := s.NewBrowser()
	b.SetAccount(models.DataSource{
		ID:             dsID,
		DataSourceType: strings.ToUpper(args[0]),
	})
	b.LoadMore(ctx)
	for b.HasMore() {
		b.LoadMore(ctx)
	}

	printLevel(b)
	return nil
}

func printLevel(b *browse.Browser) {
	for _, entry := range b.Path() {
		fmt.Printf("%s / ", entry.Name)
	}
	fmt.Println()
	for _, item := range b.View() {
		kind := " "
		if item.ItemType == models.ItemTypeFolder {
			kind = "d"
		}
		fmt.Printf("  %s %-12s %s\n", kind, item.ExternalID, item.Name)
	}
}

func runConnect(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 1 {
		usage()
	}
	id := strings.ToUpper(args[0])
	ctrl := s.Controller()

	state, err := ctrl.Start(id, connect.ModeConnect)
	if err != nil {
		return err
	}

	switch state {
	case connect.StateOAuthRedirect:
		return ctrl.StartOAuth(ctx, id)
	case connect.StateCredentials:
		values := map[string]string{}
		for _, pair := range args[1:] {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("credential %q is not key=value", pair)
			}
			values[k] = v
		}
		if err := ctrl.SubmitCredentials(ctx, id, values); err != nil {
			return err
		}
		fmt.Println("state:", string(ctrl.State(id)))
		return nil
	default:
		fmt.Println("state:", string(state))
		return nil
	}
}

func runFiles(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 1 {
		usage()
	}
	dsID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("data source id %q: %w", args[0], err)
	}

	f := s.NewFiles(dsID)
	f.LoadMore(ctx)
	for f.HasMore() {
		f.LoadMore(ctx)
	}
	for _, file := range f.View() {
		fmt.Printf("%-12s %-10s %s\n", file.ID, file.SyncStatus, file.Name)
	}
	return nil
}

func runResync(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 3 {
		usage()
	}
	dsID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("data source id %q: %w", args[1], err)
	}
	integ, ok := s.Directory().Resolve(strings.ToUpper(args[0]))
	if !ok {
		return fmt.Errorf("integration %q is not enabled", args[0])
	}

	f := s.NewFiles(dsID)
	file, err := f.Resync(ctx, integ, args[2])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", file.ID, file.SyncStatus)
	return nil
}

func runDelete(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 2 {
		usage()
	}
	dsID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("data source id %q: %w", args[0], err)
	}
	return s.NewFiles(dsID).Delete(ctx, args[1:]...)
}

func runRevoke(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 2 {
		usage()
	}
	dsID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("data source id %q: %w", args[1], err)
	}
	return s.RevokeAccount(ctx, strings.ToUpper(args[0]), dsID)
}

func runUpload(ctx context.Context, s *connectkit.Session, args []string) error {
	if len(args) < 2 {
		usage()
	}
	id := strings.ToUpper(args[0])

	var files []connect.LocalFile
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		files = append(files, connect.LocalFile{
			Name:    info.Name(),
			Size:    info.Size(),
			Content: bytes.NewReader(data),
		})
	}

	if _, err := s.Controller().Start(id, connect.ModeUpload); err != nil {
		return err
	}
	uploaded, err := s.Controller().Upload(ctx, id, files)
	for _, file := range uploaded {
		fmt.Printf("uploaded %s as %s\n", file.Name, file.ID)
	}
	return err
}
