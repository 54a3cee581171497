// Package upload is the attachment storage collaborator. The pipeline hands
// it raw blobs and gets back a URL, display filename and storage id per item.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ripplechat/ripple/internal/domain"
)

type Uploader interface {
	// Upload stores one blob under the given storage key and returns the
	// resolved attachment. Failures are per-item.
	Upload(ctx context.Context, data []byte, key, fileName string) (domain.Attachment, error)
}

// DiskUploader writes blobs under a local directory and serves them from a
// base URL. It stands in for an object-storage service.
type DiskUploader struct {
	Dir     string
	BaseURL string
}

func NewDiskUploader(dir, baseURL string) *DiskUploader {
	return &DiskUploader{Dir: dir, BaseURL: baseURL}
}

func (u *DiskUploader) Upload(ctx context.Context, data []byte, key, fileName string) (domain.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Attachment{}, err
	}

	name := key
	if ext := filepath.Ext(fileName); ext != "" {
		name += ext
	}
	path := filepath.Join(u.Dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Attachment{}, fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.Attachment{}, fmt.Errorf("writing %s: %w", name, err)
	}

	return domain.Attachment{
		URL:       u.BaseURL + "/" + name,
		FileName:  fileName,
		StorageID: key,
	}, nil
}

var base64Prefix = regexp.MustCompile(`^data:.+;base64,`)

// DecodeBlob decodes an inline attachment, tolerating surrounding
// whitespace and a data-URL prefix.
func DecodeBlob(blob string) ([]byte, error) {
	blob = strings.TrimSpace(blob)
	blob = base64Prefix.ReplaceAllString(blob, "")
	blob = strings.TrimSpace(blob)
	return base64.StdEncoding.DecodeString(blob)
}
