package db

import (
	"context"
	"testing"
	"time"

	"github.com/sievelabs/opalfix/internal/types"
)

func openTestDB(t *testing.T) *Queries {
	t.Helper()

	conn, err := Open("sqlite://" + t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}

	q, err := LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries() error = %v, want nil", err)
	}
	return q
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	if _, err := Open("mysql://localhost/opalfix"); err == nil {
		t.Error("Open() error = nil, want unsupported scheme error")
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	conn, err := Open("sqlite://" + t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	defer conn.Close()

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("first MigrateUp() error = %v, want nil", err)
	}
	if err := MigrateUp(conn); err != nil {
		t.Fatalf("second MigrateUp() error = %v, want nil", err)
	}

	statuses, err := MigrateStatus(conn)
	if err != nil {
		t.Fatalf("MigrateStatus() error = %v, want nil", err)
	}
	if len(statuses) == 0 {
		t.Fatal("MigrateStatus() returned no migrations")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
	}
}

func TestQueries_DatasetRoundTrip(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := q.Exec(ctx, "upsert-dataset",
		"ds-1", "kubernetes/logs", "event", "{}", "", "", now)
	if err != nil {
		t.Fatalf("Exec(upsert-dataset) error = %v, want nil", err)
	}

	var ds types.Dataset
	if err := q.Get(ctx, "get-dataset", &ds, "ds-1"); err != nil {
		t.Fatalf("Get(get-dataset) error = %v, want nil", err)
	}
	if ds.Name != "kubernetes/logs" || ds.Kind != "event" {
		t.Errorf("dataset = %+v, want name kubernetes/logs kind event", ds)
	}
	if ds.Categorized() {
		t.Error("fresh dataset reports categorized")
	}

	if _, err := q.Exec(ctx, "set-dataset-category",
		"Infrastructure", "Pod and container logs", now, "ds-1"); err != nil {
		t.Fatalf("Exec(set-dataset-category) error = %v, want nil", err)
	}

	var uncategorized []types.Dataset
	if err := q.Select(ctx, "list-uncategorized-datasets", &uncategorized); err != nil {
		t.Fatalf("Select(list-uncategorized-datasets) error = %v, want nil", err)
	}
	if len(uncategorized) != 0 {
		t.Errorf("uncategorized = %d datasets, want 0", len(uncategorized))
	}
}

func TestQueries_MetricRoundTrip(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if _, err := q.Exec(ctx, "upsert-dataset",
		"ds-1", "kubernetes/metrics", "metric", "{}", "", "", now); err != nil {
		t.Fatalf("Exec(upsert-dataset) error = %v, want nil", err)
	}
	if _, err := q.Exec(ctx, "upsert-metric",
		"ds-1", "error_count_5m", "count", "", now); err != nil {
		t.Fatalf("Exec(upsert-metric) error = %v, want nil", err)
	}

	var metrics []types.Metric
	if err := q.Select(ctx, "list-metrics-for-dataset", &metrics, "ds-1"); err != nil {
		t.Fatalf("Select(list-metrics-for-dataset) error = %v, want nil", err)
	}
	if len(metrics) != 1 || metrics[0].Name != "error_count_5m" {
		t.Fatalf("metrics = %+v, want one error_count_5m", metrics)
	}
}

func TestQueries_UnknownName(t *testing.T) {
	q := openTestDB(t)

	var ds types.Dataset
	if err := q.Get(context.Background(), "no-such-query", &ds); err == nil {
		t.Error("Get(no-such-query) error = nil, want error")
	}
}
