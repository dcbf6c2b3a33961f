// Package integrations holds the static connector directory and resolves
// per-connector ingestion settings.
package integrations

// FlowKind selects which connection flow a connector runs.
type FlowKind string

const (
	// FlowOAuth opens an OAuth redirect straight away.
	FlowOAuth FlowKind = "oauth"
	// FlowCredentials collects secret fields and POSTs them.
	FlowCredentials FlowKind = "credentials"
	// FlowCredentialsThenResources is FlowCredentials followed by a
	// secondary resource-selection step (repository choice).
	FlowCredentialsThenResources FlowKind = "credentials+resources"
	// FlowUpload accepts local file uploads, no account connection.
	FlowUpload FlowKind = "upload"
)

// Field is one required credential input for a credentials flow.
type Field struct {
	Name   string // wire name, e.g. "api_key"
	Label  string
	Secret bool // secret fields are cleared after a failed attempt
}

// Descriptor is the build-time metadata for one connector.
type Descriptor struct {
	ID                       string
	Name                     string
	Description              string
	Active                   bool
	DataSourceType           string
	RequiresOAuth            bool
	MultiStep                bool
	SupportsMultipleAccounts bool

	Flow     FlowKind
	Endpoint string // credentials endpoint, empty for pure OAuth connectors
	Fields   []Field
}

// Builtin is the full connector table. Connectors absent from the caller's
// enabled list are excluded from the directory entirely.
var Builtin = []Descriptor{
	{
		ID: "BOX", Name: "Box", Description: "Connect your Box account",
		Active: true, DataSourceType: "BOX",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "CONFLUENCE", Name: "Confluence", Description: "Connect your Confluence account",
		Active: true, DataSourceType: "CONFLUENCE",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/confluence",
		Fields: []Field{{Name: "domain", Label: "Workspace domain"}},
	},
	{
		ID: "DROPBOX", Name: "Dropbox", Description: "Connect your Dropbox account",
		Active: true, DataSourceType: "DROPBOX",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "FRESHDESK", Name: "Freshdesk", Description: "Connect your Freshdesk account",
		Active: true, DataSourceType: "FRESHDESK",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/freshdesk",
		Fields: []Field{
			{Name: "domain", Label: "Subdomain"},
			{Name: "api_key", Label: "API key", Secret: true},
		},
	},
	{
		ID: "GITBOOK", Name: "Gitbook", Description: "Connect your Gitbook account",
		Active: true, DataSourceType: "GITBOOK",
		MultiStep: true,
		Flow:      FlowCredentials, Endpoint: "/integrations/gitbook",
		Fields: []Field{
			{Name: "organization", Label: "Organization"},
			{Name: "access_token", Label: "Access token", Secret: true},
		},
	},
	{
		ID: "GITHUB", Name: "Github", Description: "Connect your Github account",
		Active: true, DataSourceType: "GITHUB",
		MultiStep: true,
		Flow:      FlowCredentialsThenResources, Endpoint: "/integrations/github",
		Fields: []Field{
			{Name: "username", Label: "Username"},
			{Name: "access_token", Label: "Access token", Secret: true},
		},
	},
	{
		ID: "GMAIL", Name: "Gmail", Description: "Connect your Gmail account",
		Active: true, DataSourceType: "GMAIL",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "GOOGLE_DRIVE", Name: "Google Drive", Description: "Connect your Google Drive account",
		Active: true, DataSourceType: "GOOGLE_DRIVE",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "INTERCOM", Name: "Intercom", Description: "Connect your Intercom account",
		Active: true, DataSourceType: "INTERCOM",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "LOCAL_FILES", Name: "File Upload", Description: "Upload files from your computer",
		Active: true, DataSourceType: "LOCAL_FILES",
		Flow: FlowUpload,
	},
	{
		ID: "NOTION", Name: "Notion", Description: "Connect your Notion accounts",
		Active: true, DataSourceType: "NOTION",
		RequiresOAuth: true, SupportsMultipleAccounts: true, Flow: FlowOAuth,
	},
	{
		ID: "ONEDRIVE", Name: "OneDrive", Description: "Connect your OneDrive account",
		Active: true, DataSourceType: "ONEDRIVE",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "OUTLOOK", Name: "Outlook", Description: "Connect your Outlook account",
		Active: true, DataSourceType: "OUTLOOK",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
	{
		ID: "S3", Name: "S3", Description: "Connect an S3 bucket",
		Active: true, DataSourceType: "S3",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/s3",
		Fields: []Field{
			{Name: "access_key", Label: "Access key"},
			{Name: "access_key_secret", Label: "Access key secret", Secret: true},
		},
	},
	{
		ID: "SALESFORCE", Name: "Salesforce", Description: "Connect your Salesforce account",
		Active: true, DataSourceType: "SALESFORCE",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/salesforce",
		Fields: []Field{{Name: "domain", Label: "Salesforce domain"}},
	},
	{
		ID: "SHAREPOINT", Name: "Sharepoint", Description: "Connect your Sharepoint account",
		Active: true, DataSourceType: "SHAREPOINT",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/sharepoint",
		Fields: []Field{{Name: "tenant_name", Label: "Tenant name"}},
	},
	{
		ID: "WEB_SCRAPER", Name: "Web Scraper", Description: "Scrape data from any website",
		Active: true, DataSourceType: "WEB_SCRAPER",
		Flow: FlowUpload,
	},
	{
		ID: "ZENDESK", Name: "Zendesk", Description: "Connect your Zendesk account",
		Active: true, DataSourceType: "ZENDESK",
		RequiresOAuth: true, MultiStep: true,
		Flow: FlowCredentials, Endpoint: "/integrations/zendesk",
		Fields: []Field{{Name: "subdomain", Label: "Subdomain"}},
	},
	{
		ID: "ZOTERO", Name: "Zotero", Description: "Connect your Zotero account",
		Active: true, DataSourceType: "ZOTERO",
		RequiresOAuth: true, Flow: FlowOAuth,
	},
}

// Connector grouping by sync mechanism. Which group the picker-or-URL
// connectors land in depends on the resolved sync-on-connection flag.
var (
	SyncURLBasedConnectors     = []string{"BOX", "DROPBOX", "GOOGLE_DRIVE", "INTERCOM", "NOTION", "ONEDRIVE", "SHAREPOINT", "ZENDESK", "ZOTERO"}
	FilePickerBasedConnectors  = []string{"GITHUB"}
	PickerOrURLBasedConnectors = []string{"CONFLUENCE", "SALESFORCE"}
)

// UsesSyncURL reports whether connecting the given integration goes through
// a generated sync/OAuth URL, given the resolved sync-on-connection flag.
func UsesSyncURL(id string, syncFilesOnConnection bool) bool {
	for _, c := range SyncURLBasedConnectors {
		if c == id {
			return true
		}
	}
	if syncFilesOnConnection {
		for _, c := range PickerOrURLBasedConnectors {
			if c == id {
				return true
			}
		}
	}
	return false
}

// UsesFilePicker reports whether the integration selects items through the
// file picker instead of a sync URL.
func UsesFilePicker(id string, syncFilesOnConnection bool) bool {
	for _, c := range FilePickerBasedConnectors {
		if c == id {
			return true
		}
	}
	if !syncFilesOnConnection {
		for _, c := range PickerOrURLBasedConnectors {
			if c == id {
				return true
			}
		}
	}
	return false
}
