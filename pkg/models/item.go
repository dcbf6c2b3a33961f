// Package models contains shared data types used across the SDK.
package models

import "time"

// ItemType classifies a remote item as reported by the backend.
type ItemType string

const (
	ItemTypeFile     ItemType = "FILE"
	ItemTypeFolder   ItemType = "FOLDER"
	ItemTypeDatabase ItemType = "DATABASE"
	ItemTypePage     ItemType = "PAGE"
)

// RemoteItem represents a file or folder living in a connected data source.
// ExternalID is the connector's own identifier; it is unique only within the
// parent's child list, not across the whole tree.
type RemoteItem struct {
	ExternalID   string        `json:"external_id"`
	Name         string        `json:"name"`
	ItemType     ItemType      `json:"item_type"`
	IsExpandable bool          `json:"is_expandable"`
	IsSelectable bool          `json:"is_selectable"`
	CreatedAt    time.Time     `json:"created_at"`
	Children     []*RemoteItem `json:"children,omitempty"`
}

// IsFolder reports whether the item can be descended into.
func (i *RemoteItem) IsFolder() bool {
	return i.IsExpandable
}

// PathEntry is one level of the navigation stack. The bottom entry is a
// synthetic root with a nil DirectoryID.
type PathEntry struct {
	DirectoryID  *string
	Name         string
	Offset       int
	HasMoreFiles bool
	ParentID     *string
	AccountID    *string
	// LastSyncMarker is an opaque server-side sync marker. A change in the
	// marker invalidates everything cached below this entry.
	LastSyncMarker string
}

// DataSource is a connected account on the backend.
type DataSource struct {
	ID                   int       `json:"id"`
	DataSourceType       string    `json:"data_source_type"`
	DataSourceExternalID string    `json:"data_source_external_id"`
	SyncStatus           string    `json:"sync_status,omitempty"`
	LastSyncedAt         time.Time `json:"last_synced_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UserFile is a file record already ingested by the backend.
type UserFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SyncStatus string    `json:"sync_status"`
	LastSync   time.Time `json:"last_sync"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repo is a secondary listable resource exposed by code-host connectors.
type Repo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
