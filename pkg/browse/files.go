package browse

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

// Files is the paginated list of already-ingested files for one data
// source, with in-place resync and delete.
type Files struct {
	client   *client.Client
	pageSize int
	hooks    protocol.Hooks

	mu           sync.Mutex
	dataSourceID int
	files        []*models.UserFile
	offset       int
	hasMore      bool
	loading      bool
	search       string
	sortField    SortField
	sortDir      SortDirection
}

// NewFiles creates a files view for one data source.
func NewFiles(c *client.Client, dataSourceID, pageSize int) *Files {
	return &Files{
		client:       c,
		pageSize:     pageSize,
		dataSourceID: dataSourceID,
		hasMore:      true,
		sortDir:      SortAsc,
	}
}

// SetHooks attaches caller callbacks; Resync reports an UPDATE event for
// each re-ingested file.
func (f *Files) SetHooks(h protocol.Hooks) {
	f.hooks = h
}

// LoadMore fetches the next page of file records. Failures halt pagination
// and are not returned; scrolling again retries.
func (f *Files) LoadMore(ctx context.Context) {
	f.mu.Lock()
	if !f.hasMore || f.loading {
		f.mu.Unlock()
		return
	}
	f.loading = true
	req := protocol.UserFilesRequest{
		DataSourceID: f.dataSourceID,
		Pagination:   protocol.Pagination{Offset: f.offset, Limit: f.pageSize},
	}
	f.mu.Unlock()

	resp, err := f.client.UserFiles(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		logging.Error("user files page failed", logging.Err(err),
			logging.Int("data_source", f.dataSourceID))
		f.hasMore = false
		return
	}

	for _, file := range resp.Results {
		if f.indexOf(file.ID) == -1 {
			f.files = append(f.files, file)
		}
	}
	f.offset += len(resp.Results)
	f.hasMore = len(resp.Results) > 0 && resp.Count > f.offset
}

// Resync re-ingests one file with the integration's resolved chunking and
// swaps the updated record into the list.
func (f *Files) Resync(ctx context.Context, integration *integrations.Integration, fileID string) (*models.UserFile, error) {
	settings := integration.Settings()
	updated, err := f.client.ResyncFile(ctx, protocol.ResyncFileRequest{
		FileID:       fileID,
		ChunkSize:    settings.ChunkSize,
		ChunkOverlap: settings.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if idx := f.indexOf(updated.ID); idx != -1 {
		f.files[idx] = updated
	}
	f.mu.Unlock()

	f.hooks.Success(protocol.Event{
		Status:      http.StatusOK,
		Action:      protocol.EventUpdate,
		Event:       protocol.EventUpdate,
		Integration: integration.DataSourceType,
	})
	return updated, nil
}

// Delete queues files for deletion on the backend and drops them from the
// list.
func (f *Files) Delete(ctx context.Context, fileIDs ...string) error {
	if err := f.client.DeleteFiles(ctx, fileIDs); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range fileIDs {
		if idx := f.indexOf(id); idx != -1 {
			f.files = append(f.files[:idx], f.files[idx+1:]...)
		}
	}
	return nil
}

// SetSearch filters the view by a case-insensitive name substring.
func (f *Files) SetSearch(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = query
}

// SetSort orders the view.
func (f *Files) SetSort(field SortField, dir SortDirection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sortField = field
	f.sortDir = dir
}

// HasMore reports whether unfetched pages remain.
func (f *Files) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// View returns the file records with search and sort applied.
func (f *Files) View() []*models.UserFile {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := strings.ToLower(f.search)
	out := make([]*models.UserFile, 0, len(f.files))
	for _, file := range f.files {
		if query != "" && !strings.Contains(strings.ToLower(file.Name), query) {
			continue
		}
		out = append(out, file)
	}

	if f.sortField != SortNone {
		asc := f.sortDir != SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			var less bool
			switch f.sortField {
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

// indexOf must be called with the lock held.
func (f *Files) indexOf(id string) int {
	for i, file := range f.files {
		if file.ID == id {
			return i
		}
	}
	return -1
}
