package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/mem-analysis/pkg/compression"
	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
)

// ReportStore packs reports as compressed JSON and keeps them under
// "reports/<uuid>.json" plus the codec's extension.
type ReportStore struct {
	store Storage
	codec compression.Compressor
}

// NewReportStore wraps a backend with the report codec.
func NewReportStore(store Storage, ctype compression.Type) (*ReportStore, error) {
	codec, err := compression.New(ctype, compression.LevelDefault)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "build report codec", err)
	}
	return &ReportStore{store: store, codec: codec}, nil
}

// Key returns the object key a report is stored under.
func (r *ReportStore) Key(uuid string) string {
	return "reports/" + uuid + ".json" + compression.Ext(r.codec.Type())
}

// Put uploads the report and returns its object key.
func (r *ReportStore) Put(ctx context.Context, report *model.Report) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeEncodeError, "encode report", err)
	}
	packed, err := r.codec.Compress(data)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeEncodeError, "pack report", err)
	}

	key := r.Key(report.UUID)
	if err := r.store.Upload(ctx, key, bytes.NewReader(packed)); err != nil {
		return "", err
	}
	return key, nil
}

// Get fetches and decodes the report at key. The codec is detected
// from the stored bytes, so reports packed under an older
// configuration still load.
func (r *ReportStore) Get(ctx context.Context, key string) (*model.Report, error) {
	rc, err := r.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	packed, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "read object", err)
	}
	data, err := compression.AutoDecompress(packed)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEncodeError, "unpack report", err)
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEncodeError, "decode report", err)
	}
	return &report, nil
}

// Delete removes the report at key.
func (r *ReportStore) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

// URL returns where the report at key can be fetched from.
func (r *ReportStore) URL(key string) string {
	return r.store.GetURL(key)
}

// Close releases codec resources.
func (r *ReportStore) Close() {
	compression.Close(r.codec)
}
