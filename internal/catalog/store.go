// Package catalog maintains the dataset and metric catalog: platform
// metadata synced into the relational store, plus the offline LLM labeling
// job that assigns each entry a category and purpose.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sievelabs/opalfix/internal/core/db"
	"github.com/sievelabs/opalfix/internal/types"
)

// Store persists datasets and metrics through the named-query layer.
type Store struct {
	queries *db.Queries
}

// NewStore creates a Store. queries must be non-nil.
func NewStore(queries *db.Queries) (*Store, error) {
	if queries == nil {
		return nil, fmt.Errorf("catalog: queries is required")
	}
	return &Store{queries: queries}, nil
}

// ListDatasets returns every dataset ordered by name.
func (s *Store) ListDatasets(ctx context.Context) ([]types.Dataset, error) {
	var datasets []types.Dataset
	if err := s.queries.Select(ctx, "list-datasets", &datasets); err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	return datasets, nil
}

// GetDataset returns one dataset or types.ErrDatasetNotFound.
func (s *Store) GetDataset(ctx context.Context, id types.DatasetID) (types.Dataset, error) {
	var ds types.Dataset
	err := s.queries.Get(ctx, "get-dataset", &ds, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Dataset{}, fmt.Errorf("%w: %s", types.ErrDatasetNotFound, id)
	}
	if err != nil {
		return types.Dataset{}, fmt.Errorf("getting dataset %s: %w", id, err)
	}
	return ds, nil
}

// ListDatasetsByCategory returns the datasets carrying one assigned
// category, ordered by name.
func (s *Store) ListDatasetsByCategory(ctx context.Context, category string) ([]types.Dataset, error) {
	var datasets []types.Dataset
	if err := s.queries.Select(ctx, "list-datasets-by-category", &datasets, category); err != nil {
		return nil, fmt.Errorf("listing datasets in category %q: %w", category, err)
	}
	return datasets, nil
}

// ListUncategorized returns datasets the labeling job has not yet touched.
func (s *Store) ListUncategorized(ctx context.Context) ([]types.Dataset, error) {
	var datasets []types.Dataset
	if err := s.queries.Select(ctx, "list-uncategorized-datasets", &datasets); err != nil {
		return nil, fmt.Errorf("listing uncategorized datasets: %w", err)
	}
	return datasets, nil
}

// UpsertDataset inserts or refreshes platform metadata. Category and
// purpose are preserved on conflict so re-syncing does not erase labels.
func (s *Store) UpsertDataset(ctx context.Context, ds types.Dataset) error {
	if ds.DatasetID == "" || ds.Name == "" {
		return fmt.Errorf("catalog: dataset id and name are required")
	}
	_, err := s.queries.Exec(ctx, "upsert-dataset",
		string(ds.DatasetID), ds.Name, ds.Kind, ds.Schema, ds.Category, ds.Purpose,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting dataset %s: %w", ds.DatasetID, err)
	}
	return nil
}

// SetDatasetCategory records the label the job assigned.
func (s *Store) SetDatasetCategory(ctx context.Context, id types.DatasetID, category, purpose string) error {
	res, err := s.queries.Exec(ctx, "set-dataset-category",
		category, purpose, time.Now().UTC(), string(id))
	if err != nil {
		return fmt.Errorf("setting category for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", types.ErrDatasetNotFound, id)
	}
	return nil
}

// ListMetrics returns every metric ordered by dataset then name.
func (s *Store) ListMetrics(ctx context.Context) ([]types.Metric, error) {
	var metrics []types.Metric
	if err := s.queries.Select(ctx, "list-metrics", &metrics); err != nil {
		return nil, fmt.Errorf("listing metrics: %w", err)
	}
	return metrics, nil
}

// ListMetricsForDataset returns the metrics belonging to one dataset.
func (s *Store) ListMetricsForDataset(ctx context.Context, id types.DatasetID) ([]types.Metric, error) {
	var metrics []types.Metric
	if err := s.queries.Select(ctx, "list-metrics-for-dataset", &metrics, string(id)); err != nil {
		return nil, fmt.Errorf("listing metrics for %s: %w", id, err)
	}
	return metrics, nil
}

// GetMetric returns one metric or types.ErrMetricNotFound.
func (s *Store) GetMetric(ctx context.Context, id types.DatasetID, name string) (types.Metric, error) {
	var m types.Metric
	err := s.queries.Get(ctx, "get-metric", &m, string(id), name)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Metric{}, fmt.Errorf("%w: %s/%s", types.ErrMetricNotFound, id, name)
	}
	if err != nil {
		return types.Metric{}, fmt.Errorf("getting metric %s/%s: %w", id, name, err)
	}
	return m, nil
}

// UpsertMetric inserts or refreshes one metric. Category is preserved on
// conflict.
func (s *Store) UpsertMetric(ctx context.Context, m types.Metric) error {
	if m.DatasetID == "" || m.Name == "" {
		return fmt.Errorf("catalog: metric dataset id and name are required")
	}
	_, err := s.queries.Exec(ctx, "upsert-metric",
		string(m.DatasetID), m.Name, m.Unit, m.Category, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting metric %s/%s: %w", m.DatasetID, m.Name, err)
	}
	return nil
}

// SetMetricCategory records the label the job assigned to a metric.
func (s *Store) SetMetricCategory(ctx context.Context, id types.DatasetID, name, category string) error {
	res, err := s.queries.Exec(ctx, "set-metric-category",
		category, time.Now().UTC(), string(id), name)
	if err != nil {
		return fmt.Errorf("setting category for %s/%s: %w", id, name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", types.ErrMetricNotFound, id, name)
	}
	return nil
}
