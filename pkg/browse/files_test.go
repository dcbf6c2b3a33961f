package browse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sourcehub/connectkit/pkg/client"
	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

func userFile(id, name, status string) *models.UserFile {
	return &models.UserFile{ID: id, Name: name, SyncStatus: status}
}

func testFiles(t *testing.T, handler http.Handler, dataSourceID, pageSize int) *Files {
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
	return NewFiles(c, dataSourceID, pageSize)
}

func TestFilesLoadMore(t *testing.T) {
	all := []*models.UserFile{
		userFile("f1", "a.pdf", "READY"),
		userFile("f2", "b.pdf", "READY"),
		userFile("f3", "c.pdf", "SYNCING"),
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.UserFilesRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.DataSourceID != 5 {
			t.Errorf("data_source_id = %d, want 5", req.DataSourceID)
		}
		start, end := req.Pagination.Offset, len(all)
		if req.Pagination.Limit > 0 && start+req.Pagination.Limit < end {
			end = start + req.Pagination.Limit
		}
		json.NewEncoder(w).Encode(protocol.UserFilesResponse{
			Count:   len(all),
			Results: all[start:end],
		})
	})

	f := testFiles(t, handler, 5, 2)
	ctx := context.Background()

	f.LoadMore(ctx)
	if got := len(f.View()); got != 2 {
		t.Fatalf("first page: %d files, want 2", got)
	}
	if !f.HasMore() {
		t.Fatal("HasMore() = false with a page remaining")
	}

	f.LoadMore(ctx)
	if got := len(f.View()); got != 3 {
		t.Fatalf("all pages: %d files, want 3", got)
	}
	if f.HasMore() {
		t.Error("HasMore() = true after all pages")
	}
}

func TestFilesConcurrentLoadMoreFetchesOnce(t *testing.T) {
	all := []*models.UserFile{
		userFile("f1", "a.pdf", "READY"),
		userFile("f2", "b.pdf", "READY"),
		userFile("f3", "c.pdf", "READY"),
		userFile("f4", "d.pdf", "READY"),
		userFile("f5", "e.pdf", "READY"),
		userFile("f6", "f.pdf", "READY"),
	}
	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
		var req protocol.UserFilesRequest
		json.NewDecoder(r.Body).Decode(&req)
		start, end := req.Pagination.Offset, len(all)
		if req.Pagination.Limit > 0 && start+req.Pagination.Limit < end {
			end = start + req.Pagination.Limit
		}
		json.NewEncoder(w).Encode(protocol.UserFilesResponse{
			Count:   len(all),
			Results: all[start:end],
		})
	})

	f := testFiles(t, handler, 5, 3)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		f.LoadMore(ctx)
		close(done)
	}()
	<-entered

	// A second call while the first page is still in flight must not issue
	// another request for the same offset.
	f.LoadMore(ctx)
	close(release)
	<-done

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("requests during overlap = %d, want 1", got)
	}
	if got := len(f.View()); got != 3 {
		t.Fatalf("after first page: %d files, want 3", got)
	}
	if !f.HasMore() {
		t.Fatal("HasMore() = false with a page remaining")
	}

	f.LoadMore(ctx)
	if got := len(f.View()); got != 6 {
		t.Errorf("after second page: %d files, want 6", got)
	}
	if f.HasMore() {
		t.Error("HasMore() = true after all pages")
	}
}

func TestFilesLoadMoreFailureHalts(t *testing.T) {
	f := testFiles(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Detail: "boom"})
	}), 5, 2)

	f.LoadMore(context.Background())
	if f.HasMore() {
		t.Error("failed page should stop pagination")
	}
	if len(f.View()) != 0 {
		t.Error("failed page must not add files")
	}
}

func TestFilesResync(t *testing.T) {
	var gotResync protocol.ResyncFileRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user_files_v2":
			json.NewEncoder(w).Encode(protocol.UserFilesResponse{
				Count:   1,
				Results: []*models.UserFile{userFile("f1", "a.pdf", "READY")},
			})
		case "/resync_file":
			json.NewDecoder(r.Body).Decode(&gotResync)
			json.NewEncoder(w).Encode(userFile("f1", "a.pdf", "QUEUED_FOR_SYNC"))
		}
	})

	f := testFiles(t, handler, 5, 10)
	var gotEvent protocol.Event
	f.SetHooks(protocol.Hooks{OnSuccess: func(e protocol.Event) { gotEvent = e }})
	ctx := context.Background()
	f.LoadMore(ctx)

	chunk := 800
	dir := integrations.NewDirectory(integrations.Config{
		EnabledIntegrations: []integrations.Overrides{
			{ID: "NOTION", ChunkSize: integrations.Ptr(chunk)},
		},
	})
	integ, _ := dir.Resolve("NOTION")

	updated, err := f.Resync(ctx, integ, "f1")
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if gotResync.ChunkSize != chunk {
		t.Errorf("resync chunk_size = %d, want %d", gotResync.ChunkSize, chunk)
	}
	if gotResync.ChunkOverlap != integrations.DefaultOverlapSize {
		t.Errorf("resync chunk_overlap = %d, want %d", gotResync.ChunkOverlap, integrations.DefaultOverlapSize)
	}
	if updated.SyncStatus != "QUEUED_FOR_SYNC" {
		t.Errorf("updated status = %q", updated.SyncStatus)
	}
	if view := f.View(); view[0].SyncStatus != "QUEUED_FOR_SYNC" {
		t.Error("updated record not swapped into the view")
	}
	if gotEvent.Action != protocol.EventUpdate {
		t.Errorf("event action = %v, want UPDATE", gotEvent.Action)
	}
}

func TestFilesDelete(t *testing.T) {
	var gotDelete protocol.DeleteFilesRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user_files_v2":
			json.NewEncoder(w).Encode(protocol.UserFilesResponse{
				Count: 2,
				Results: []*models.UserFile{
					userFile("f1", "a.pdf", "READY"),
					userFile("f2", "b.pdf", "READY"),
				},
			})
		case "/delete_files":
			json.NewDecoder(r.Body).Decode(&gotDelete)
			w.WriteHeader(http.StatusOK)
		}
	})

	f := testFiles(t, handler, 5, 10)
	ctx := context.Background()
	f.LoadMore(ctx)

	if err := f.Delete(ctx, "f1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(gotDelete.FileIDs) != 1 || gotDelete.FileIDs[0] != "f1" {
		t.Errorf("delete file_ids = %v, want [f1]", gotDelete.FileIDs)
	}
	view := f.View()
	if len(view) != 1 || view[0].ID != "f2" {
		t.Errorf("view after delete = %v, want only f2", view)
	}
}

func TestFilesSearch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(protocol.UserFilesResponse{
			Count: 2,
			Results: []*models.UserFile{
				userFile("f1", "Quarterly Report.pdf", "READY"),
				userFile("f2", "notes.txt", "READY"),
			},
		})
	})

	f := testFiles(t, handler, 5, 10)
	f.LoadMore(context.Background())

	f.SetSearch("report")
	view := f.View()
	if len(view) != 1 || view[0].ID != "f1" {
		t.Errorf("search view = %v, want only f1", view)
	}
}
