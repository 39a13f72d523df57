// Package pipeline transforms one year of raw survey tables into the
// canonical, weighted, entity-linked dataset consumed by the rule engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"surveycore/internal/dataset"
	"surveycore/internal/rawstore"
)

// RawProvider materializes a year's raw tables when the store lacks them.
// Implementations fetch and decode the remote archive; failures surface as
// ordinary errors distinguishable from the pipeline's own stages.
type RawProvider interface {
	Ensure(ctx context.Context, year int) error
}

// Generator orchestrates one batch generation run per year: resolve raw
// tables, derive keys, propagate weights, recode variables, persist.
type Generator struct {
	raw      rawstore.Store
	provider RawProvider
	writer   *dataset.Writer

	// Seed drives the age-jitter random source. Nil reproduces the reference
	// behavior of an arbitrary seed; tests set it for reproducibility.
	Seed    *int64
	Log     *slog.Logger
	Metrics *Metrics
}

// NewGenerator constructs a generator. provider may be nil, in which case a
// missing year is a terminal error.
func NewGenerator(raw rawstore.Store, provider RawProvider, writer *dataset.Writer) *Generator {
	return &Generator{
		raw:      raw,
		provider: provider,
		writer:   writer,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Generate builds and persists the canonical dataset for one year. All
// failures abort the run; the artifact for the year is only replaced after
// the full dataset validates.
func (g *Generator) Generate(ctx context.Context, year int) (*dataset.Dataset, error) {
	d, err := g.generate(ctx, year)
	if err != nil {
		g.Metrics.incFailure()
		return nil, err
	}
	return d, nil
}

func (g *Generator) generate(ctx context.Context, year int) (*dataset.Dataset, error) {
	set, err := g.resolveRaw(ctx, year)
	if err != nil {
		return nil, err
	}

	b := dataset.NewBuilder()
	rng := g.newRand()
	stages := []struct {
		name string
		run  func() error
	}{
		{"derive_keys", func() error { return DeriveKeys(set, b) }},
		{"propagate_weights", func() error { return PropagateWeights(set, b) }},
		{"map_demographics", func() error { return MapDemographics(set, b, rng) }},
		{"map_income", func() error { return MapIncome(set, b) }},
		{"map_spm_unit", func() error { return MapSPMUnit(set, b) }},
		{"map_household", func() error { return MapHousehold(set, b) }},
	}
	for _, stage := range stages {
		start := time.Now()
		if err := stage.run(); err != nil {
			return nil, fmt.Errorf("year %d stage %s: %w", year, stage.name, err)
		}
		g.Metrics.observeStage(stage.name, time.Since(start))
		g.Log.Debug("stage complete", "year", year, "stage", stage.name)
	}

	d, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("year %d stage finalize: %w", year, err)
	}

	start := time.Now()
	info, err := g.writer.Write(ctx, year, d)
	if err != nil {
		return nil, fmt.Errorf("year %d stage write: %w", year, err)
	}
	g.Metrics.observeStage("write", time.Since(start))
	for _, entity := range []dataset.Entity{dataset.Person, dataset.Family, dataset.TaxUnit, dataset.SPMUnit, dataset.Household} {
		g.Metrics.setRows(string(entity), d.Length(entity))
	}
	g.Log.Info("dataset generated", "year", year, "key", info.Key, "bytes", info.Size, "persons", d.Length(dataset.Person))
	return d, nil
}

// resolveRaw loads the year's raw tables, triggering the raw sub-pipeline
// when they are not yet materialized. A missing year is recoverable; a
// failing sub-pipeline is not.
func (g *Generator) resolveRaw(ctx context.Context, year int) (*rawstore.TableSet, error) {
	has, err := g.raw.Has(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("year %d stage raw_lookup: %w", year, err)
	}
	if !has {
		if g.provider == nil {
			return nil, fmt.Errorf("year %d stage raw_lookup: %w", year, rawstore.ErrYearNotFound{Year: year})
		}
		g.Log.Info("raw tables missing, generating", "year", year)
		if err := g.provider.Ensure(ctx, year); err != nil {
			return nil, fmt.Errorf("year %d stage raw_generate: %w", year, err)
		}
	}
	set, err := g.raw.Load(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("year %d stage raw_load: %w", year, err)
	}
	return set, nil
}

func (g *Generator) newRand() *rand.Rand {
	if g.Seed != nil {
		return rand.New(rand.NewSource(*g.Seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// IsMissingYear reports whether err stems from a year absent from the raw
// store with no provider configured to materialize it.
func IsMissingYear(err error) bool {
	var missing rawstore.ErrYearNotFound
	return errors.As(err, &missing)
}
