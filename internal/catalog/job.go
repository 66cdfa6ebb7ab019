package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sievelabs/opalfix/internal/log"
	"github.com/sievelabs/opalfix/internal/types"
)

// JobSummary reports the outcome of one labeling run.
type JobSummary struct {
	RunID   types.RunID `json:"run_id"`
	Pending int         `json:"pending"`
	Labeled int         `json:"labeled"`
	Failed  int         `json:"failed"`
}

// Job labels uncategorized datasets in batches. Resumable: already-labeled
// rows never reappear in the pending list, so a failed run picks up where
// it stopped.
type Job struct {
	store     *Store
	labeler   Labeler
	batchSize int
}

// NewJob creates a labeling job. batchSize <= 0 selects the default of 20.
func NewJob(store *Store, labeler Labeler, batchSize int) (*Job, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog: store is required")
	}
	if labeler == nil {
		return nil, fmt.Errorf("catalog: labeler is required")
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Job{store: store, labeler: labeler, batchSize: batchSize}, nil
}

// Run labels every pending dataset. Individual label failures are counted
// and skipped; the run only aborts on context cancellation or store errors.
func (j *Job) Run(ctx context.Context) (JobSummary, error) {
	summary := JobSummary{RunID: types.NewRunID()}

	pending, err := j.store.ListUncategorized(ctx)
	if err != nil {
		return summary, err
	}
	summary.Pending = len(pending)

	log.Info("labeling run started",
		zap.String("run_id", string(summary.RunID)),
		zap.Int("pending", summary.Pending),
		zap.Int("batch_size", j.batchSize))

	for start := 0; start < len(pending); start += j.batchSize {
		end := start + j.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		for _, ds := range pending[start:end] {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			label, err := j.labeler.Label(ctx, ds.Name, ds.Kind, ds.Schema)
			if err != nil {
				summary.Failed++
				log.Warn("labeling dataset failed",
					zap.String("run_id", string(summary.RunID)),
					zap.String("dataset_id", string(ds.DatasetID)),
					zap.Error(err))
				continue
			}

			if err := j.store.SetDatasetCategory(ctx, ds.DatasetID, label.Category, label.Purpose); err != nil {
				return summary, err
			}
			summary.Labeled++
		}

		log.Info("labeling batch complete",
			zap.String("run_id", string(summary.RunID)),
			zap.Int("labeled", summary.Labeled),
			zap.Int("failed", summary.Failed))
	}

	return summary, nil
}
