package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agroscan/agroscan-backend/pkg/enums"
)

// Manifest binds a trained artifact to the exact preprocessing it was trained
// with. The pair is immutable: the preprocessor is derived from the manifest
// only, never selectable per call.
type Manifest struct {
	Name          string              `json:"name"`
	ArtifactPath  string              `json:"artifact_path"`
	RunnerURL     string              `json:"runner_url"`
	InputWidth    int                 `json:"input_width"`
	InputHeight   int                 `json:"input_height"`
	Normalization enums.Normalization `json:"normalization"`
	// FeatureExtractor marks artifacts whose tensor passes through a frozen
	// backbone before the classification head.
	FeatureExtractor bool     `json:"feature_extractor"`
	PositiveLabel    string   `json:"positive_label"`
	NegativeLabel    string   `json:"negative_label"`
	Threshold        float64  `json:"threshold"`
	Labels           []string `json:"labels"`
	SoilCategories   []string `json:"soil_categories"`
}

// LoadManifest reads and validates a manifest file. The referenced artifact
// must exist on disk, otherwise the pipeline is considered unavailable.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %q: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %q: %w", path, err)
	}

	if m.Name == "" {
		return nil, fmt.Errorf("manifest %q: name is required", path)
	}
	if m.RunnerURL == "" {
		return nil, fmt.Errorf("manifest %q: runner_url is required", path)
	}
	if m.ArtifactPath == "" {
		return nil, fmt.Errorf("manifest %q: artifact_path is required", path)
	}

	artifact := m.ArtifactPath
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(filepath.Dir(path), artifact)
	}
	if _, err := os.Stat(artifact); err != nil {
		return nil, fmt.Errorf("manifest %q: artifact %q unreadable: %w", path, m.ArtifactPath, err)
	}

	return &m, nil
}

// ValidateImage checks the fields an image pipeline requires.
func (m *Manifest) ValidateImage() error {
	if m.InputWidth <= 0 || m.InputHeight <= 0 {
		return fmt.Errorf("manifest %q: input dimensions are required", m.Name)
	}
	if !m.Normalization.IsValid() {
		return fmt.Errorf("manifest %q: invalid normalization %q", m.Name, m.Normalization)
	}
	// A frozen backbone is trained on ImageNet statistics; pairing it with
	// unit scaling would feed it tensors it has never seen.
	if m.FeatureExtractor && m.Normalization != enums.NormalizationImageNet {
		return fmt.Errorf("manifest %q: feature extractor artifacts require imagenet normalization", m.Name)
	}
	if m.PositiveLabel == "" {
		m.PositiveLabel = enums.CropConditionHealthy.String()
	}
	if m.NegativeLabel == "" {
		m.NegativeLabel = enums.CropConditionUnhealthy.String()
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("manifest %q: threshold must be in (0,1)", m.Name)
	}
	return nil
}

// ValidateTabular checks the fields a tabular pipeline requires.
func (m *Manifest) ValidateTabular() error {
	if len(m.Labels) == 0 {
		return fmt.Errorf("manifest %q: labels are required", m.Name)
	}
	if len(m.SoilCategories) == 0 {
		return fmt.Errorf("manifest %q: soil categories are required", m.Name)
	}
	return nil
}
