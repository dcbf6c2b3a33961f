package integrations

import (
	"strings"

	"github.com/sourcehub/connectkit/pkg/protocol"
)

// Integration is one entry of the merged directory: the static descriptor
// plus the caller's overrides for it. Immutable after the merge.
type Integration struct {
	Descriptor
	overrides Overrides
	global    *Config
}

// Directory is the merged integration lookup. Pure in-memory, no network.
type Directory struct {
	cfg  Config
	byID map[string]*Integration
	ids  []string
}

// NewDirectory merges the builtin descriptor table with the caller's
// enabled-integrations list. Inactive descriptors and integrations missing
// from the enabled list are excluded entirely.
func NewDirectory(cfg Config) *Directory {
	d := &Directory{
		cfg:  cfg,
		byID: make(map[string]*Integration),
	}
	for _, desc := range Builtin {
		if !desc.Active {
			continue
		}
		for _, ov := range cfg.EnabledIntegrations {
			if ov.ID != desc.ID {
				continue
			}
			item := &Integration{Descriptor: desc, overrides: ov, global: &d.cfg}
			d.byID[desc.ID] = item
			d.ids = append(d.ids, desc.ID)
			break
		}
	}
	return d
}

// Resolve looks up an enabled integration by id.
func (d *Directory) Resolve(id string) (*Integration, bool) {
	item, ok := d.byID[id]
	return item, ok
}

// IDs returns the enabled integration ids in builtin-table order.
func (d *Directory) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Tags returns the caller's tag set attached to every sync request.
func (d *Directory) Tags() map[string]string {
	return d.cfg.Tags
}

// UseRequestIDs reports whether idempotency tokens are enabled.
func (d *Directory) UseRequestIDs() bool {
	return d.cfg.UseRequestIDs
}

// MaxFileSize returns the upload size limit in bytes (0 = unlimited).
func (d *Directory) MaxFileSize() int64 {
	return d.cfg.MaxFileSize
}

// MaxFileCount returns the per-batch upload count limit (0 = unlimited).
func (d *Directory) MaxFileCount() int {
	return d.cfg.MaxFileCount
}

// Settings resolves the full settings bundle for this integration. Each
// field resolves independently: per-integration override, then top-level
// caller override, then the hard-coded fallback.
func (i *Integration) Settings() protocol.SettingsBundle {
	return protocol.SettingsBundle{
		ChunkSize:               resolveInt(i.overrides.ChunkSize, i.global.ChunkSize, DefaultChunkSize),
		ChunkOverlap:            resolveInt(i.overrides.OverlapSize, i.global.OverlapSize, DefaultOverlapSize),
		SkipEmbeddingGeneration: resolveBool(i.overrides.SkipEmbeddingGeneration, i.global.SkipEmbeddingGeneration, false),
		EmbeddingModel:          resolveString(i.overrides.EmbeddingModel, i.global.EmbeddingModel, ""),
		GenerateSparseVectors:   resolveBool(i.overrides.GenerateSparseVectors, i.global.GenerateSparseVectors, false),
		PrependFilenameToChunks: resolveBool(i.overrides.PrependFilenameToChunks, i.global.PrependFilenameToChunks, false),
		MaxItemsPerChunk:        resolveInt(i.overrides.MaxItemsPerChunk, i.global.MaxItemsPerChunk, 0),
		SetPageAsBoundary:       resolveBool(i.overrides.SetPageAsBoundary, i.global.SetPageAsBoundary, false),
		UseOCR:                  resolveBool(i.overrides.UseOCR, i.global.UseOCR, false),
		ParsePDFTablesWithOCR:   resolveBool(i.overrides.ParsePDFTablesWithOCR, i.global.ParsePDFTablesWithOCR, false),
		SyncFilesOnConnection:   resolveBool(i.overrides.SyncFilesOnConnection, i.global.SyncFilesOnConnection, defaultSyncFilesOnConnection),
		SyncSourceItems:         resolveBool(i.overrides.SyncSourceItems, i.global.SyncSourceItems, defaultSyncSourceItems),
	}
}

// ShowFilesTab resolves the files-tab visibility toggle.
func (i *Integration) ShowFilesTab() bool {
	return resolveBool(i.overrides.ShowFilesTab, nil, i.global.ShowFilesTab)
}

// NormalizeField applies connector-specific cleanup to a credential field
// value before it is sent. Today that is only the Freshdesk domain, which
// users paste as a full URL.
func (i *Integration) NormalizeField(name, value string) string {
	if i.ID == "FRESHDESK" && name == "domain" {
		v := value
		for _, prefix := range []string{"https://www.", "http://www.", "https://", "http://"} {
			v = strings.TrimPrefix(v, prefix)
		}
		return strings.TrimSpace(strings.TrimSuffix(v, "/"))
	}
	return value
}

func resolveInt(override, top *int, fallback int) int {
	if override != nil {
		return *override
	}
	if top != nil {
		return *top
	}
	return fallback
}

func resolveBool(override, top *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	if top != nil {
		return *top
	}
	return fallback
}

func resolveString(override, top *string, fallback string) string {
	if override != nil {
		return *override
	}
	if top != nil {
		return *top
	}
	return fallback
}
