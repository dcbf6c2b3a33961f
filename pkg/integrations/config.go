package integrations

// Hard-coded fallbacks, the last stop of the settings precedence chain.
const (
	DefaultChunkSize   = 1500
	DefaultOverlapSize = 20
)

const (
	defaultSyncFilesOnConnection = true
	defaultSyncSourceItems       = true
)

// Overrides carries per-integration settings supplied by the caller. Nil
// pointer fields are "unset" and fall through to the next precedence level.
type Overrides struct {
	ID string

	ChunkSize               *int
	OverlapSize             *int
	SkipEmbeddingGeneration *bool
	EmbeddingModel          *string
	GenerateSparseVectors   *bool
	PrependFilenameToChunks *bool
	MaxItemsPerChunk        *int
	SetPageAsBoundary       *bool
	UseOCR                  *bool
	ParsePDFTablesWithOCR   *bool
	SyncFilesOnConnection   *bool
	SyncSourceItems         *bool

	ShowFilesTab *bool
}

// Theme holds the caller's color tokens. Opaque to the SDK; exposed so a
// rendering layer can consume them.
type Theme struct {
	PrimaryBackgroundColor   string
	PrimaryTextColor         string
	SecondaryBackgroundColor string
	SecondaryTextColor       string
	ZIndex                   int
}

// Config is the caller-supplied configuration surface.
type Config struct {
	OrgName   string
	BrandIcon string
	Tags      map[string]string

	// EnabledIntegrations gates which connectors exist at all. An
	// integration absent from this list is excluded from the directory,
	// not merely hidden.
	EnabledIntegrations []Overrides

	// Top-level defaults, overridden per integration.
	ChunkSize               *int
	OverlapSize             *int
	SkipEmbeddingGeneration *bool
	EmbeddingModel          *string
	GenerateSparseVectors   *bool
	PrependFilenameToChunks *bool
	MaxItemsPerChunk        *int
	SetPageAsBoundary       *bool
	UseOCR                  *bool
	ParsePDFTablesWithOCR   *bool
	SyncFilesOnConnection   *bool
	SyncSourceItems         *bool

	// UseRequestIDs enables client-side idempotency tokens on connection
	// and sync requests.
	UseRequestIDs bool

	ShowFilesTab bool
	MaxFileSize  int64
	MaxFileCount int

	Theme Theme
}

// Ptr returns a pointer to v. Convenience for building override literals.
func Ptr[T any](v T) *T { return &v }
