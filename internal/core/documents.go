package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kuhu42/solar-back-sub001/internal/blob"
	"github.com/kuhu42/solar-back-sub001/internal/preview"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

const quoteDocumentPrefix = "quotes/"

// DocumentArchive keeps rendered quotation documents in a blob store, one
// object per send.
type DocumentArchive struct {
	store blob.Store
}

// NewDocumentArchive wraps store. A nil store yields an in-memory archive.
func NewDocumentArchive(store blob.Store) *DocumentArchive {
	if store == nil {
		store = blob.NewMemory()
	}
	return &DocumentArchive{store: store}
}

// Store returns the backing blob store.
func (a *DocumentArchive) Store() blob.Store { return a.store }

// SaveQuotation stores doc under quotes/<sourceId>/<unix-nanos>.txt.
func (a *DocumentArchive) SaveQuotation(ctx context.Context, q domain.Quote, doc preview.Document) (blob.Info, error) {
	prefix, err := quotePrefix(q.SourceID)
	if err != nil {
		return blob.Info{}, err
	}
	key := prefix + strconv.FormatInt(q.Date.UnixNano(), 10) + ".txt"
	info, err := a.store.Put(ctx, key, strings.NewReader(doc.Body), blob.PutOptions{
		ContentType: "text/plain; charset=utf-8",
		Metadata: map[string]string{
			"customer": q.CustomerID,
			"amount":   strconv.FormatFloat(q.Amount, 'f', 2, 64),
			"filename": doc.Filename,
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("archive quotation %s: %w", key, err)
	}
	return info, nil
}

// ListDocuments returns the archived quotations for a source, oldest first.
func (a *DocumentArchive) ListDocuments(ctx context.Context, sourceID string) ([]blob.Info, error) {
	prefix, err := quotePrefix(sourceID)
	if err != nil {
		return nil, err
	}
	infos, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list quotations for %s: %w", sourceID, err)
	}
	return infos, nil
}

// PresignURL returns a time-limited download URL when the backend supports it.
func (a *DocumentArchive) PresignURL(ctx context.Context, key string, opts blob.SignedURLOptions) (string, error) {
	url, err := a.store.PresignURL(ctx, key, opts)
	if err != nil && !errors.Is(err, blob.ErrUnsupported) {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, err
}

func quotePrefix(sourceID string) (string, error) {
	if sourceID == "" || strings.ContainsAny(sourceID, "/\\") || sourceID == "." || sourceID == ".." {
		return "", domain.Validationf("archive_quotation", domain.EntityProject, "invalid source id %q", sourceID)
	}
	return quoteDocumentPrefix + sourceID + "/", nil
}
