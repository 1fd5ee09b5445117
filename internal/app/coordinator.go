package app

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"farmconnect/internal/util"
	"farmconnect/pkg/storage"
)

// Storage namespaces for listing images.
const (
	NamespaceProduceImages    = "produce_images"
	NamespaceMarketItemImages = "market_item_images"
)

// AssetUpload describes a new image accompanying a record write.
type AssetUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
	Progress    storage.ProgressFunc
}

// upsertWithAsset runs the asset-backed record write in three phases:
// upload the new image (if any), delete the superseded image, commit the
// record. A create (zero prior) requires an upload; an update may keep the
// prior image. The superseded delete is best effort and never fails the
// write. A commit failure leaves the uploaded object in place rather than
// compensating, so the stored record never references a missing asset.
func (a *App) upsertWithAsset(ctx context.Context, namespace, ownerID string, prior storage.AssetRef, upload *AssetUpload, commit func(storage.AssetRef) error) (storage.AssetRef, error) {
	if upload == nil {
		if prior.IsZero() {
			return storage.AssetRef{}, ErrMissingAsset
		}
		if err := commit(prior); err != nil {
			return storage.AssetRef{}, &CommitError{Err: err}
		}
		return prior, nil
	}

	if upload.Filename == "" {
		return storage.AssetRef{}, invalidField("image", "filename required")
	}
	key := buildStorageKey(namespace, ownerID, upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(upload.Filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	reader := storage.WithProgress(upload.Reader, upload.Size, upload.Progress)
	ref, err := a.objects.Put(ctx, key, reader, upload.Size, contentType)
	if err != nil {
		return storage.AssetRef{}, &AssetUploadError{Err: err}
	}

	if !prior.IsZero() && ref.URL != prior.URL {
		a.deleteAsset(ctx, prior, "supersede")
	}

	if err := commit(ref); err != nil {
		return storage.AssetRef{}, &CommitError{Err: err}
	}
	return ref, nil
}

// deleteAsset removes a stored object, logging instead of failing when the
// key cannot be recovered or the delete errors.
func (a *App) deleteAsset(ctx context.Context, ref storage.AssetRef, reason string) {
	logger := util.LoggerFromContext(ctx)
	key, ok := ref.ResolveKey()
	if !ok {
		logger.Warn("asset key unresolvable, object orphaned", "url", ref.URL, "reason", reason)
		return
	}
	if err := a.objects.Delete(ctx, key); err != nil {
		logger.Warn("asset delete failed, object orphaned", "key", key, "reason", reason, "error", err)
	}
}

// buildStorageKey yields {namespace}/{ownerID}/{unixMillis}_{filename}.
func buildStorageKey(namespace, ownerID, filename string) string {
	return namespace + "/" + ownerID + "/" +
		strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + sanitizeFilename(filename)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
