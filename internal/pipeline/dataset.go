// Package pipeline runs dataset synchronizations: fetch, parse, map, upsert,
// recount, with one audited job per dataset run.
package pipeline

import (
	"fmt"

	"github.com/mkoziy/civic/exporter/internal/config"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/source"
	"github.com/mkoziy/civic/exporter/internal/sources"
	"github.com/mkoziy/civic/exporter/internal/sources/assemblee"
	"github.com/mkoziy/civic/exporter/internal/sources/insee"
	"github.com/mkoziy/civic/exporter/internal/sources/rne"
	"github.com/mkoziy/civic/exporter/internal/sources/senat"
)

// Dataset binds an upstream to its format, its mapper and its post-load work.
type Dataset struct {
	Type     models.DatasetType
	Endpoint source.Endpoint
	Format   parse.Format
	Map      sources.Mapper
	// Chamber, when set, triggers a group member recount after the load.
	Chamber models.Chamber
	// Resource names the entity type announced on change.
	Resource string
}

type binding struct {
	mapper   sources.Mapper
	chamber  models.Chamber
	resource string
}

var bindings = map[models.DatasetType]binding{
	models.DatasetDeputies:          {assemblee.MapDeputy, models.ChamberAssembly, "officials"},
	models.DatasetSenators:          {senat.MapSenator, models.ChamberSenate, "officials"},
	models.DatasetMunicipalOfficers: {rne.MapMunicipalOfficer, "", "municipal_officers"},
	models.DatasetCommunes:          {insee.MapCommune, "", "communes"},
	models.DatasetVotes:             {assemblee.MapVote, "", "votes"},
}

// NewDataset builds a known dataset from its configuration.
func NewDataset(t models.DatasetType, cfg config.Dataset) (Dataset, error) {
	b, ok := bindings[t]
	if !ok {
		return Dataset{}, fmt.Errorf("%s: %w", t, source.ErrUnknownDataset)
	}
	format, err := parse.New(cfg.Format)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", t, err)
	}
	return Dataset{
		Type: t,
		Endpoint: source.Endpoint{
			Dataset:   string(t),
			URL:       cfg.URL,
			Kind:      cfg.Format.SourceKind(),
			RateLimit: cfg.RateLimit,
		},
		Format:   format,
		Map:      b.mapper,
		Chamber:  b.chamber,
		Resource: b.resource,
	}, nil
}

// Registry holds the datasets a process can run, in default run order.
type Registry struct {
	order    []models.DatasetType
	datasets map[models.DatasetType]Dataset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[models.DatasetType]Dataset)}
}

// RegistryFromConfig registers every configured dataset in default order.
func RegistryFromConfig(cfgs map[string]config.Dataset) (*Registry, error) {
	r := NewRegistry()
	for _, t := range models.AllDatasets() {
		cfg, ok := cfgs[string(t)]
		if !ok {
			continue
		}
		ds, err := NewDataset(t, cfg)
		if err != nil {
			return nil, err
		}
		r.Register(ds)
	}
	return r, nil
}

// Register adds ds, replacing any dataset of the same type.
func (r *Registry) Register(ds Dataset) {
	if _, ok := r.datasets[ds.Type]; !ok {
		r.order = append(r.order, ds.Type)
	}
	r.datasets[ds.Type] = ds
}

// Get returns the dataset of type t.
func (r *Registry) Get(t models.DatasetType) (Dataset, bool) {
	ds, ok := r.datasets[t]
	return ds, ok
}

// Order returns the registered dataset types in run order.
func (r *Registry) Order() []models.DatasetType {
	out := make([]models.DatasetType, len(r.order))
	copy(out, r.order)
	return out
}
