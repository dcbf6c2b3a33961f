package connect

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sourcehub/connectkit/pkg/integrations"
	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/models"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

// LocalFile is one file queued for upload.
type LocalFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Upload pushes local files through the upload-flow integration
// (LOCAL_FILES). Size and count limits are enforced before any network
// call. Each accepted file emits an ADD event; each failure emits an error
// event, and the remaining files are still attempted.
func (c *Controller) Upload(ctx context.Context, id string, files []LocalFile) ([]*models.UserFile, error) {
	integration, ok := c.dir.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("integration %q is not enabled", id)
	}
	if integration.Flow != integrations.FlowUpload {
		return nil, fmt.Errorf("integration %q does not accept uploads", id)
	}

	if max := c.dir.MaxFileCount(); max > 0 && len(files) > max {
		return nil, fmt.Errorf("too many files: %d exceeds limit of %d", len(files), max)
	}
	if max := c.dir.MaxFileSize(); max > 0 {
		for _, f := range files {
			if f.Size > max {
				return nil, fmt.Errorf("file %s exceeds size limit of %d bytes", f.Name, max)
			}
		}
	}

	c.begin(id, ModeUpload, StateConnected)
	settings := integration.Settings()

	var uploaded []*models.UserFile
	var firstErr error
	for _, f := range files {
		record, err := c.client.UploadFile(ctx, f.Name, f.Content, settings)
		if err != nil {
			logging.Error("upload failed", logging.Err(err),
				logging.String("file", f.Name))
			c.emitError(id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		uploaded = append(uploaded, record)
		c.hooks.Success(protocol.Event{
			Status:      http.StatusOK,
			Action:      protocol.EventAdd,
			Event:       protocol.EventAdd,
			Integration: integration.DataSourceType,
		})
	}
	return uploaded, firstErr
}
