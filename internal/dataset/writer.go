package dataset

import (
	"context"
	"fmt"
	"strconv"

	"surveycore/internal/artifact"
)

// ContentType identifies dataset artifacts in the artifact store.
const ContentType = "application/x-surveycore-dataset"

// Key returns the artifact key for a survey year.
func Key(year int) string {
	return fmt.Sprintf("cps/%d.dataset", year)
}

// Writer persists finalized datasets as one artifact per year.
type Writer struct {
	store artifact.Store
}

// NewWriter constructs a writer backed by the given artifact store.
func NewWriter(store artifact.Store) *Writer {
	return &Writer{store: store}
}

// Write encodes the dataset and stores it under the year's key, replacing any
// previous artifact for that year. The store's create-only Put plus the prior
// Delete guarantee a truncated artifact is never left visible as complete.
func (w *Writer) Write(ctx context.Context, year int, d *Dataset) (artifact.Info, error) {
	payload, err := Encode(d)
	if err != nil {
		return artifact.Info{}, fmt.Errorf("encode dataset: %w", err)
	}
	key := Key(year)
	if _, err := w.store.Delete(ctx, key); err != nil {
		return artifact.Info{}, fmt.Errorf("replace %s: %w", key, err)
	}
	info, err := w.store.Put(ctx, key, payload, artifact.PutOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{"year": strconv.Itoa(year)},
	})
	if err != nil {
		return artifact.Info{}, fmt.Errorf("store %s: %w", key, err)
	}
	return info, nil
}

// Read loads and decodes the year's artifact.
func (w *Writer) Read(ctx context.Context, year int) (*Dataset, error) {
	_, payload, err := w.store.Get(ctx, Key(year))
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}
