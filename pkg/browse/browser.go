package browse

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
	"github.com/sourcehub/connectkit/pkg/tree"
)

// LevelState describes the pagination state of the current directory.
type LevelState int

const (
	LevelUnvisited LevelState = iota
	LevelLoading
	LevelLoaded
	LevelExhausted
)

// SortField selects what the listing view is ordered by.
type SortField string

const (
	SortNone      SortField = ""
	SortName      SortField = "name"
	SortCreatedAt SortField = "created_at"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Browser ties the navigation stack, selection set, and item cache to the
// listing endpoint. One Browser serves one data source at a time.
//
// Listing failures are absorbed: they stop pagination for the current level.
// Refresh re-arms the level; re-descending a folder retries its first page
// as well.
type Browser struct {
	client   *client.Client
	pageSize int

	mu        sync.Mutex
	cache     *tree.Cache
	stack     *Stack
	selection *Selection

	dataSourceID int
	loading      bool

	// epoch invalidates in-flight responses after an account reset. A
	// response carrying an older epoch is dropped before it can touch the
	// cache or the pagination cursor.
	epoch uint64

	sortField SortField
	sortDir   SortDirection
	search    string
}

// NewBrowser creates a browser for the given client. pageSize 0 uses the
// server's default page size.
func NewBrowser(c *client.Client, pageSize int) *Browser {
	return &Browser{
		client:    c,
		pageSize:  pageSize,
		cache:     tree.NewCache(),
		stack:     NewStack(),
		selection: NewSelection(),
		sortDir:   SortAsc,
	}
}

// SetAccount scopes the browser to a connected account. If the account
// identity or its last-sync marker changed, the cache and navigation stack
// are reset; otherwise this is a no-op.
func (b *Browser) SetAccount(ds models.DataSource) {
	b.mu.Lock()
	defer b.mu.Unlock()

	accountID := ds.DataSourceExternalID
	marker := ds.LastSyncedAt.UTC().Format("2006-01-02T15:04:05.000000000")

	top := b.stack.Top()
	if top.AccountID != nil && *top.AccountID == accountID && top.LastSyncMarker == marker {
		return
	}

	logging.Debug("browser scope reset",
		logging.String("account", accountID),
		logging.Int("data_source", ds.ID))
	b.dataSourceID = ds.ID
	b.cache.Reset()
	b.stack.ResetForAccount(&accountID, marker)
	b.selection = NewSelection()
	b.epoch++
	b.loading = false
}

// Path returns the current breadcrumb path, root first.
func (b *Browser) Path() []models.PathEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stack.Entries()
}

// State reports the pagination state of the current directory.
func (b *Browser) State() LevelState {
	b.mu.Lock()
	defer b.mu.Unlock()

	top := b.stack.Top()
	switch {
	case b.loading:
		return LevelLoading
	case !top.HasMoreFiles:
		return LevelExhausted
	case top.Offset == 0:
		return LevelUnvisited
	default:
		return LevelLoaded
	}
}

// LoadMore fetches the next page for the current directory and merges it
// into the cache. Errors are logged and halt pagination for the level; they
// are not returned. Refresh retries a halted level.
func (b *Browser) LoadMore(ctx context.Context) {
	b.mu.Lock()
	top := b.stack.Top()
	if !top.HasMoreFiles || b.loading {
		b.mu.Unlock()
		return
	}
	b.loading = true
	epoch := b.epoch
	path := b.stack.Entries()
	req := protocol.ListItemsRequest{
		DataSourceID: b.dataSourceID,
		Pagination:   protocol.Pagination{Offset: top.Offset, Limit: b.pageSize},
	}
	if top.DirectoryID != nil {
		req.ParentID = *top.DirectoryID
	}
	b.mu.Unlock()

	resp, err := b.client.ListItems(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false

	if epoch != b.epoch {
		// Account was reset while the fetch was in flight.
		logging.Debug("dropping stale listing response",
			logging.String("parent", req.ParentID))
		return
	}

	if err != nil {
		logging.Error("listing page failed", logging.Err(err),
			logging.String("parent", req.ParentID),
			logging.Int("offset", top.Offset))
		b.updateCursor(path, top.Offset, false)
		return
	}

	b.cache.MergeAt(path, resp.Items, top.Offset == 0)

	// An empty page ends pagination even if the server's count disagrees,
	// otherwise a stale count would keep the level loading forever.
	newOffset := top.Offset + len(resp.Items)
	b.updateCursor(path, newOffset, len(resp.Items) > 0 && resp.Count > newOffset)
}

// updateCursor writes the pagination cursor, but only onto the level the
// fetch was issued for. A late response for a directory the user already
// navigated away from must not clobber the current level's cursor.
func (b *Browser) updateCursor(path []models.PathEntry, offset int, hasMore bool) {
	issued := path[len(path)-1]
	current := b.stack.Top()
	if !sameDirectory(issued.DirectoryID, current.DirectoryID) {
		return
	}
	b.stack.UpdateTopCursor(offset, hasMore)
}

func sameDirectory(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Refresh re-arms pagination for the current directory and fetches the next
// page from the cursor it halted at. This is the recovery path after a
// failed page, which otherwise leaves the level exhausted.
func (b *Browser) Refresh(ctx context.Context) {
	b.mu.Lock()
	top := b.stack.Top()
	b.stack.UpdateTopCursor(top.Offset, true)
	b.mu.Unlock()

	b.LoadMore(ctx)
}

// OpenFolder descends into a folder and fetches its first page.
func (b *Browser) OpenFolder(ctx context.Context, item *models.RemoteItem) error {
	b.mu.Lock()
	if err := b.stack.DescendInto(item); err != nil {
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()

	b.LoadMore(ctx)
	return nil
}

// JumpToBreadcrumb truncates the path to the given segment. Negative index
// jumps to the root. The cached items below the truncation point survive;
// re-descending re-uses them.
func (b *Browser) JumpToBreadcrumb(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stack.JumpToBreadcrumb(index)
}

// SetSort orders the view by the given field. Setting SortNone restores the
// server's original order.
func (b *Browser) SetSort(field SortField, dir SortDirection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sortField = field
	b.sortDir = dir
}

// SetSearch filters the view by a case-insensitive name substring.
func (b *Browser) SetSearch(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.search = query
}

// View returns the items of the current directory with sort and search
// applied. Items not yet fetched are absent; an unmaterialized directory
// yields an empty view.
func (b *Browser) View() []*models.RemoteItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.cache.ViewAt(b.stack.Entries())
	out := make([]*models.RemoteItem, 0, len(items))
	query := strings.ToLower(b.search)
	for _, item := range items {
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		out = append(out, item)
	}

	if b.sortField != SortNone {
		asc := b.sortDir != SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			var less bool
			switch b.sortField {
			case SortCreatedAt:
				less = out[i].CreatedAt.Before(out[j].CreatedAt)
			default:
				less = out[i].Name < out[j].Name
			}
			if asc {
				return less
			}
			return !less
		})
	}
	return out
}

// HasMore reports whether the current directory has unfetched pages.
func (b *Browser) HasMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stack.Top().HasMoreFiles
}

// Toggle flips an item's selection. Folders are ignored.
func (b *Browser) Toggle(item *models.RemoteItem) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Toggle(item)
}

// Selected returns the selected ids in selection order.
func (b *Browser) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.IDs()
}

// IsSelected reports whether the id is selected.
func (b *Browser) IsSelected(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Contains(id)
}

// SelectedCount returns the number of selected items.
func (b *Browser) SelectedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Count()
}

// ClearSelection empties the selection.
func (b *Browser) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Clear()
}

// SyncSelected submits the selected ids for ingestion with the
// integration's resolved settings. The selection is cleared whether or not
// the submission succeeds.
func (b *Browser) SyncSelected(ctx context.Context, integration *integrations.Integration, tags map[string]string, requestID string) error {
	b.mu.Lock()
	ids := b.selection.IDs()
	b.selection.Clear()
	dataSourceID := b.dataSourceID
	b.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	req := protocol.SyncItemsRequest{
		DataSourceID:   dataSourceID,
		IDs:            ids,
		Tags:           tags,
		RequestID:      requestID,
		SettingsBundle: integration.Settings(),
	}
	if err := b.client.SyncItems(ctx, req); err != nil {
		return err
	}
	logging.Info("sync submitted",
		logging.Int("items", len(ids)),
		logging.String("integration", integration.ID))
	return nil
}
