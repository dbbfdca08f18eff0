package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/storage"
)

const (
	defaultOrphanMaxAge = 24 * time.Hour
	uploadKeyPrefix     = "uploads"
)

// UploadCleanupJobParams configure the orphaned upload sweep.
type UploadCleanupJobParams struct {
	Logger       *logger.Logger
	Store        uploadLister
	Crops        uploadReferenceRepo
	OrphanMaxAge time.Duration
}

type uploadLister interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type uploadReferenceRepo interface {
	ExistsByImagePath(ctx context.Context, imagePath string) (bool, error)
}

// NewUploadCleanupJob wires the sweep that removes stored uploads no
// classification row references.
func NewUploadCleanupJob(params UploadCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("upload store required")
	}
	if params.Crops == nil {
		return nil, fmt.Errorf("crops repository required")
	}
	maxAge := params.OrphanMaxAge
	if maxAge <= 0 {
		maxAge = defaultOrphanMaxAge
	}
	return &uploadCleanupJob{
		logg:   params.Logger,
		store:  params.Store,
		crops:  params.Crops,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type uploadCleanupJob struct {
	logg   *logger.Logger
	store  uploadLister
	crops  uploadReferenceRepo
	maxAge time.Duration
	now    func() time.Time
}

func (j *uploadCleanupJob) Name() string { return "upload-cleanup" }

// Run deletes uploads older than the orphan window that no crop health row
// references. Recent files are left alone so an in-flight prediction is never
// swept out from under its commit.
func (j *uploadCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)

	objects, err := j.store.List(ctx, uploadKeyPrefix)
	if err != nil {
		return fmt.Errorf("list uploads: %w", err)
	}

	var errs error
	deleted := 0
	for _, obj := range objects {
		if obj.ModifiedAt.After(cutoff) {
			continue
		}
		referenced, err := j.crops.ExistsByImagePath(ctx, obj.Key)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("check %s: %w", obj.Key, err))
			continue
		}
		if referenced {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", obj.Key, err))
			continue
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": len(objects),
		"deleted": deleted,
		"cutoff":  cutoff,
	})
	j.logg.Info(logCtx, "upload cleanup complete")
	return errs
}
