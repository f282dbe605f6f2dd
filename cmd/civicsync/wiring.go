package main

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/database"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/pipeline"
	"github.com/mkoziy/civic/exporter/internal/source"
)

func (a *app) openStore() (*bun.DB, error) {
	db, err := database.NewDB(a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func (a *app) newOrchestrator(db bun.IDB, opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	registry, err := pipeline.RegistryFromConfig(a.cfg.Datasets)
	if err != nil {
		return nil, err
	}
	fetcher := source.NewFetcher(source.Options{
		Timeout:    a.cfg.Fetch.Timeout,
		ScratchDir: a.cfg.Fetch.ScratchDir,
		UserAgent:  a.cfg.Fetch.UserAgent,
	})
	return pipeline.NewOrchestrator(db, fetcher, registry, opts...), nil
}

// datasetArgs converts CLI arguments to dataset types. No arguments or "all"
// selects every configured dataset.
func datasetArgs(args []string) []models.DatasetType {
	var out []models.DatasetType
	for _, arg := range args {
		if arg == "all" {
			return nil
		}
		out = append(out, models.DatasetType(arg))
	}
	return out
}
