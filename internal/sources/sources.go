// Package sources resolves raw survey archives for years that are not yet
// materialized in the raw store. The registry maps years to retrieval
// locations; the archive provider fetches, decodes, and saves the tables.
package sources

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"surveycore/internal/rawstore"
)

// Registry maps a survey year to the retrieval location of its raw archive.
// Locations are https URLs or s3://bucket/key references.
type Registry map[int]string

// DefaultRegistry returns the registry of published raw archives.
func DefaultRegistry() Registry {
	return Registry{
		2020: "https://github.com/surveycore/raw-cps/releases/download/v0/cps_2020.tables.gz",
	}
}

// URLFor returns the archive location for a year.
func (r Registry) URLFor(year int) (string, error) {
	loc, ok := r[year]
	if !ok {
		return "", fmt.Errorf("no raw archive registered for year %d", year)
	}
	return loc, nil
}

// ArchiveProvider implements pipeline.RawProvider by fetching the year's
// archive (gzipped JSON table set) and saving it into the raw store.
type ArchiveProvider struct {
	registry Registry
	store    rawstore.Store
	client   *http.Client

	s3Mu     sync.Mutex
	s3Client *s3.Client
}

// NewArchiveProvider constructs a provider over the given registry and store.
func NewArchiveProvider(registry Registry, store rawstore.Store) *ArchiveProvider {
	return &ArchiveProvider{registry: registry, store: store, client: http.DefaultClient}
}

// Ensure fetches, decodes, and materializes the year's raw tables. The whole
// resolution is wrapped so nested failures are distinguishable from failures
// of the generation pipeline proper.
func (p *ArchiveProvider) Ensure(ctx context.Context, year int) error {
	if err := p.ensure(ctx, year); err != nil {
		return fmt.Errorf("resolve raw tables for year %d: %w", year, err)
	}
	return nil
}

func (p *ArchiveProvider) ensure(ctx context.Context, year int) error {
	loc, err := p.registry.URLFor(year)
	if err != nil {
		return err
	}
	body, err := p.fetch(ctx, loc)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = gz.Close() }()

	var set rawstore.TableSet
	if err := json.NewDecoder(gz).Decode(&set); err != nil {
		return fmt.Errorf("decode archive: %w", err)
	}
	set.Year = year
	if err := set.Validate(); err != nil {
		return fmt.Errorf("archive incomplete: %w", err)
	}
	if err := p.store.Save(ctx, &set); err != nil {
		return fmt.Errorf("materialize tables: %w", err)
	}
	return nil
}

func (p *ArchiveProvider) fetch(ctx context.Context, loc string) (io.ReadCloser, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("parse location %s: %w", loc, err)
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", loc, err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %s", loc, resp.Status)
		}
		return resp.Body, nil
	case "s3":
		client, err := p.s3(ctx)
		if err != nil {
			return nil, err
		}
		bucket := u.Host
		key := strings.TrimPrefix(u.Path, "/")
		out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", loc, err)
		}
		return out.Body, nil
	default:
		return nil, fmt.Errorf("unsupported archive scheme %s", u.Scheme)
	}
}

// s3 lazily builds the client, caching it only on success so a transient
// credential or context failure does not poison later Ensure calls.
func (p *ArchiveProvider) s3(ctx context.Context) (*s3.Client, error) {
	p.s3Mu.Lock()
	defer p.s3Mu.Unlock()
	if p.s3Client != nil {
		return p.s3Client, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	p.s3Client = s3.NewFromConfig(cfg)
	return p.s3Client, nil
}

// EncodeArchive writes a table set in the archive wire format (gzipped JSON).
// Used by tooling that publishes raw archives and by tests.
func EncodeArchive(w io.Writer, set *rawstore.TableSet) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(set); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}
