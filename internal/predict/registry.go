package predict

import (
	"context"

	"github.com/agroscan/agroscan-backend/pkg/config"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// Registry holds the pipelines loaded at startup. A pipeline whose manifest
// or artifact failed to load stays registered as unavailable; callers get
// MODEL_UNAVAILABLE instead of a partial answer.
type Registry struct {
	cropHealth  *Manifest
	recommender *Manifest
}

// NewRegistry loads both manifests. Load failures degrade the pipeline
// rather than failing startup so the rest of the API keeps serving.
func NewRegistry(ctx context.Context, cfg config.ModelsConfig, logg *logger.Logger) *Registry {
	reg := &Registry{}

	if m, err := loadImageManifest(cfg.CropHealthManifest); err != nil {
		if logg != nil {
			logg.Error(logg.WithField(ctx, "manifest", cfg.CropHealthManifest), "crop health pipeline unavailable", err)
		}
	} else {
		reg.cropHealth = m
	}

	if m, err := loadTabularManifest(cfg.RecommenderManifest); err != nil {
		if logg != nil {
			logg.Error(logg.WithField(ctx, "manifest", cfg.RecommenderManifest), "crop recommender pipeline unavailable", err)
		}
	} else {
		reg.recommender = m
	}

	return reg
}

func loadImageManifest(path string) (*Manifest, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateImage(); err != nil {
		return nil, err
	}
	return m, nil
}

func loadTabularManifest(path string) (*Manifest, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateTabular(); err != nil {
		return nil, err
	}
	return m, nil
}

// CropHealth returns the image pipeline manifest or MODEL_UNAVAILABLE.
func (r *Registry) CropHealth() (*Manifest, error) {
	if r == nil || r.cropHealth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "crop health model unavailable")
	}
	return r.cropHealth, nil
}

// Recommender returns the tabular pipeline manifest or MODEL_UNAVAILABLE.
func (r *Registry) Recommender() (*Manifest, error) {
	if r == nil || r.recommender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "crop recommender model unavailable")
	}
	return r.recommender, nil
}

// Degraded reports whether any pipeline failed to load.
func (r *Registry) Degraded() bool {
	return r == nil || r.cropHealth == nil || r.recommender == nil
}
