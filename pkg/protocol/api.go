// Package protocol defines the ingestion API request/response types.
package protocol

import "github.com/sourcehub/connectkit/pkg/models"

// Environment selects which backend deployment the SDK talks to.
type Environment string

const (
	EnvProduction  Environment = "PRODUCTION"
	EnvDevelopment Environment = "DEVELOPMENT"
	EnvLocal       Environment = "LOCAL"
)

// BaseURL maps an environment to its API origin.
var BaseURL = map[Environment]string{
	EnvProduction:  "https://api.sourcehub.dev",
	EnvDevelopment: "https://api.dev.sourcehub.dev",
	EnvLocal:       "http://localhost:8000",
}

// Pagination is the offset/limit block accepted by listing endpoints.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit,omitempty"`
}

// ListItemsRequest is the body for POST /integrations/items/list.
// ParentID is empty for the root listing.
type ListItemsRequest struct {
	DataSourceID int        `json:"data_source_id"`
	ParentID     string     `json:"parent_id,omitempty"`
	Pagination   Pagination `json:"pagination"`
}

// ListItemsResponse is returned by POST /integrations/items/list.
// Count is the server's total for the listed directory, not the page size.
type ListItemsResponse struct {
	Count int                  `json:"count"`
	Items []*models.RemoteItem `json:"items"`
}

// SettingsBundle carries the resolved per-connection ingestion settings.
// Every field is resolved by precedence before a request is built; see
// integrations.Resolved.
type SettingsBundle struct {
	ChunkSize               int    `json:"chunk_size"`
	ChunkOverlap            int    `json:"chunk_overlap"`
	SkipEmbeddingGeneration bool   `json:"skip_embedding_generation"`
	EmbeddingModel          string `json:"embedding_model,omitempty"`
	GenerateSparseVectors   bool   `json:"generate_sparse_vectors"`
	PrependFilenameToChunks bool   `json:"prepend_filename_to_chunks"`
	MaxItemsPerChunk        int    `json:"max_items_per_chunk,omitempty"`
	SetPageAsBoundary       bool   `json:"set_page_as_boundary"`
	UseOCR                  bool   `json:"use_ocr"`
	ParsePDFTablesWithOCR   bool   `json:"parse_pdf_tables_with_ocr"`
	SyncFilesOnConnection   bool   `json:"sync_files_on_connection"`
	SyncSourceItems         bool   `json:"sync_source_items"`
}

// SyncItemsRequest is the body for POST /integrations/items/sync.
type SyncItemsRequest struct {
	DataSourceID int               `json:"data_source_id"`
	IDs          []string          `json:"ids"`
	Tags         map[string]string `json:"tags,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	SettingsBundle
}

// OAuthURLRequest is the body for POST /integrations/oauth_url.
type OAuthURLRequest struct {
	Service              string            `json:"service"`
	Tags                 map[string]string `json:"tags,omitempty"`
	ConnectingNewAccount bool              `json:"connecting_new_account"`
	DataSourceID         int               `json:"data_source_id,omitempty"`
	RequestID            string            `json:"request_id,omitempty"`
	SettingsBundle
}

// OAuthURLResponse is returned by POST /integrations/oauth_url.
type OAuthURLResponse struct {
	OAuthURL string `json:"oauth_url"`
}

// CredentialsRequest is the body for a connector-specific credentials POST
// such as /integrations/freshdesk or /integrations/s3. Fields holds the
// connector's secret fields (domain, api_key, access_key, ...).
type CredentialsRequest struct {
	Fields    map[string]string `json:"-"`
	Tags      map[string]string `json:"tags,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	SettingsBundle
}

// UserFilesRequest is the body for POST /user_files_v2.
type UserFilesRequest struct {
	DataSourceID int        `json:"data_source_id"`
	Pagination   Pagination `json:"pagination"`
}

// UserFilesResponse is returned by POST /user_files_v2.
type UserFilesResponse struct {
	Count   int                `json:"count"`
	Results []*models.UserFile `json:"results"`
}

// ResyncFileRequest is the body for POST /resync_file.
type ResyncFileRequest struct {
	FileID       string `json:"file_id"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// DeleteFilesRequest is the body for POST /delete_files.
type DeleteFilesRequest struct {
	FileIDs []string `json:"file_ids"`
}

// RevokeAccessRequest is the body for POST /revoke_access_token.
type RevokeAccessRequest struct {
	DataSourceID int `json:"data_source_id"`
}

// SyncReposRequest is the body for POST /integrations/github/sync_repos.
type SyncReposRequest struct {
	DataSourceID int      `json:"data_source_id"`
	Repos        []string `json:"repos"`
}

// WhiteLabelingResponse is returned by GET /auth/v1/white_labeling.
type WhiteLabelingResponse struct {
	RemoveBranding bool              `json:"remove_branding"`
	Integrations   map[string]string `json:"integrations,omitempty"`
}

// ErrorResponse is the error body returned by the backend on a non-200.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
