package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

// ListItems fetches one page of remote items for a data source. parentID is
// empty for the root directory. Listing calls are rate limited because fast
// scrolling can fire them in bursts.
func (c *Client) ListItems(ctx context.Context, req protocol.ListItemsRequest) (*protocol.ListItemsResponse, error) {
	if req.Pagination.Offset < 0 {
		return nil, fmt.Errorf("negative pagination offset %d", req.Pagination.Offset)
	}
	if err := c.listLimit.Wait(ctx); err != nil {
		return nil, err
	}

	var resp protocol.ListItemsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/integrations/items/list", req, &resp); err != nil {
		return nil, err
	}
	itemsListedTotal.Add(float64(len(resp.Items)))
	return &resp, nil
}

// SyncItems submits the selected item ids for ingestion.
func (c *Client) SyncItems(ctx context.Context, req protocol.SyncItemsRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/integrations/items/sync", req, nil)
}

// OAuthURL obtains the OAuth redirect URL for a service.
func (c *Client) OAuthURL(ctx context.Context, req protocol.OAuthURLRequest) (string, error) {
	var resp protocol.OAuthURLResponse
	if err := c.doJSON(ctx, http.MethodPost, "/integrations/oauth_url", req, &resp); err != nil {
		return "", err
	}
	return resp.OAuthURL, nil
}

// ConnectCredentials POSTs connector-specific credentials to the given
// integration endpoint (for example "/integrations/freshdesk").
func (c *Client) ConnectCredentials(ctx context.Context, endpoint string, req protocol.CredentialsRequest) error {
	return c.doJSON(ctx, http.MethodPost, endpoint, req, nil)
}

// ListRepos fetches one page of the secondary resource list exposed by a
// code-host connector. Returns a nil slice when the account is still being
// provisioned server-side.
func (c *Client) ListRepos(ctx context.Context, username string, page, perPage int) ([]*models.Repo, error) {
	if err := c.listLimit.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("username", username)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var repos []*models.Repo
	if err := c.doJSON(ctx, http.MethodGet, "/integrations/github/repos?"+q.Encode(), nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// SyncRepos submits the selected repos for ingestion.
func (c *Client) SyncRepos(ctx context.Context, req protocol.SyncReposRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/integrations/github/sync_repos", req, nil)
}

// UserFiles fetches one page of already-ingested files for a data source.
func (c *Client) UserFiles(ctx context.Context, req protocol.UserFilesRequest) (*protocol.UserFilesResponse, error) {
	if err := c.listLimit.Wait(ctx); err != nil {
		return nil, err
	}

	var resp protocol.UserFilesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/user_files_v2", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResyncFile re-ingests a single file and returns the updated record.
func (c *Client) ResyncFile(ctx context.Context, req protocol.ResyncFileRequest) (*models.UserFile, error) {
	var file models.UserFile
	if err := c.doJSON(ctx, http.MethodPost, "/resync_file", req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFiles queues the given files for deletion.
func (c *Client) DeleteFiles(ctx context.Context, fileIDs []string) error {
	req := protocol.DeleteFilesRequest{FileIDs: fileIDs}
	return c.doJSON(ctx, http.MethodPost, "/delete_files", req, nil)
}

// RevokeAccess disconnects a data source on the backend.
func (c *Client) RevokeAccess(ctx context.Context, dataSourceID int) error {
	req := protocol.RevokeAccessRequest{DataSourceID: dataSourceID}
	return c.doJSON(ctx, http.MethodPost, "/revoke_access_token", req, nil)
}

// WhiteLabeling fetches the organization's white-labeling data.
func (c *Client) WhiteLabeling(ctx context.Context) (*protocol.WhiteLabelingResponse, error) {
	var resp protocol.WhiteLabelingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/white_labeling", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadFile uploads a local file as multipart form data. The settings
// bundle travels in the query string, matching the upload endpoint's shape.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader, settings protocol.SettingsBundle) (*models.UserFile, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("chunk_size", strconv.Itoa(settings.ChunkSize))
	q.Set("chunk_overlap", strconv.Itoa(settings.ChunkOverlap))
	q.Set("skip_embedding_generation", strconv.FormatBool(settings.SkipEmbeddingGeneration))
	q.Set("generate_sparse_vectors", strconv.FormatBool(settings.GenerateSparseVectors))
	q.Set("prepend_filename_to_chunks", strconv.FormatBool(settings.PrependFilenameToChunks))
	q.Set("use_ocr", strconv.FormatBool(settings.UseOCR))
	q.Set("parse_pdf_tables_with_ocr", strconv.FormatBool(settings.ParsePDFTablesWithOCR))
	if settings.EmbeddingModel != "" {
		q.Set("embedding_model", settings.EmbeddingModel)
	}
	if settings.MaxItemsPerChunk > 0 {
		q.Set("max_items_per_chunk", strconv.Itoa(settings.MaxItemsPerChunk))
	}
	path := "/uploadfile?" + q.Encode()

	resp, err := c.do(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var file models.UserFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse upload response: %w", err)
	}
	return &file, nil
}
