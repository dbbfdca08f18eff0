package predict

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

type fakeRunner struct {
	rows      [][]float64
	err       error
	calls     int
	lastURL   string
	lastInput any
}

func (f *fakeRunner) Predict(ctx context.Context, runnerURL string, instances any) ([][]float64, error) {
	f.calls++
	f.lastURL = runnerURL
	f.lastInput = instances
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeCropRepo struct {
	created []*models.CropHealth
	err     error
}

func (f *fakeCropRepo) Create(ctx context.Context, row *models.CropHealth) (*models.CropHealth, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, row)
	return row, nil
}

type fakeSoilRepo struct {
	created []*models.SoilData
	err     error
}

func (f *fakeSoilRepo) Create(ctx context.Context, row *models.SoilData) (*models.SoilData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, row)
	return row, nil
}

type fakeUploadStore struct {
	saved map[string][]byte
	err   error
}

func (f *fakeUploadStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	data, _ := io.ReadAll(r)
	f.saved[key] = data
	return nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 9), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func imageManifest() *Manifest {
	return &Manifest{
		Name:          "crop_health_cnn_v1",
		ArtifactPath:  "crop_health.h5",
		RunnerURL:     "http://runner/crop-health",
		InputWidth:    150,
		InputHeight:   150,
		Normalization: enums.NormalizationUnit,
		PositiveLabel: "Healthy",
		NegativeLabel: "Unhealthy",
		Threshold:     0.5,
	}
}

func tabularManifest() *Manifest {
	return &Manifest{
		Name:           "crop_recommender_v1",
		ArtifactPath:   "recommender.pkl",
		RunnerURL:      "http://runner/recommender",
		Labels:         []string{"rice", "wheat", "cotton"},
		SoilCategories: []string{"Clay", "Loamy", "Sandy"},
	}
}

func newTestService(t *testing.T, reg *Registry, runner Runner, crops *fakeCropRepo, soil *fakeSoilRepo, uploads *fakeUploadStore) Service {
	t.Helper()
	svc, err := NewService(reg, runner, crops, soil, uploads, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPredictImagePersistsRowAndUpload(t *testing.T) {
	reg := &Registry{cropHealth: imageManifest(), recommender: tabularManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.83}}}
	crops := &fakeCropRepo{}
	uploads := &fakeUploadStore{}
	svc := newTestService(t, reg, runner, crops, &fakeSoilRepo{}, uploads)

	result, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi",
		FileName: "leaf.png",
		Data:     testPNG(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Prediction != "Healthy" {
		t.Fatalf("expected Healthy above threshold, got %q", result.Prediction)
	}
	if result.Score != 0.83 {
		t.Fatalf("unexpected score %f", result.Score)
	}
	if result.ModelName != "crop_health_cnn_v1" {
		t.Fatalf("unexpected model name %q", result.ModelName)
	}
	if len(crops.created) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(crops.created))
	}
	if len(uploads.saved) != 1 {
		t.Fatalf("expected archived upload, got %d", len(uploads.saved))
	}
	if crops.created[0].ImagePath == "" {
		t.Fatal("expected image path persisted with the row")
	}
}

func TestPredictImageBelowThresholdIsNegativeLabel(t *testing.T) {
	reg := &Registry{cropHealth: imageManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.12}}}
	crops := &fakeCropRepo{}
	svc := newTestService(t, reg, runner, crops, &fakeSoilRepo{}, &fakeUploadStore{})

	result, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi", FileName: "leaf.png", Data: testPNG(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Prediction != "Unhealthy" {
		t.Fatalf("expected Unhealthy below threshold, got %q", result.Prediction)
	}
}

func TestPredictImageSendsBatchOfOne(t *testing.T) {
	reg := &Registry{cropHealth: imageManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.6}}}
	svc := newTestService(t, reg, runner, &fakeCropRepo{}, &fakeSoilRepo{}, &fakeUploadStore{})

	if _, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi", FileName: "leaf.png", Data: testPNG(t),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tensor, ok := runner.lastInput.(Tensor)
	if !ok {
		t.Fatalf("expected Tensor input, got %T", runner.lastInput)
	}
	if len(tensor) != 1 {
		t.Fatalf("expected batch of one, got %d", len(tensor))
	}
	if len(tensor[0]) != 150 || len(tensor[0][0]) != 150 || len(tensor[0][0][0]) != 3 {
		t.Fatalf("unexpected tensor shape [%d][%d][%d]", len(tensor[0]), len(tensor[0][0]), len(tensor[0][0][0]))
	}
	// unit normalization keeps values in [0,1]
	for _, v := range tensor[0][10][10] {
		if v < 0 || v > 1 {
			t.Fatalf("unit-normalized value out of range: %f", v)
		}
	}
}

func TestPredictImageUndecodableUploadPersistsNothing(t *testing.T) {
	reg := &Registry{cropHealth: imageManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.9}}}
	crops := &fakeCropRepo{}
	uploads := &fakeUploadStore{}
	svc := newTestService(t, reg, runner, crops, &fakeSoilRepo{}, uploads)

	_, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi", FileName: "not-an-image.txt", Data: []byte("plain text"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatal("runner must not be called for undecodable uploads")
	}
	if len(crops.created) != 0 || len(uploads.saved) != 0 {
		t.Fatal("nothing may be persisted for undecodable uploads")
	}
}

func TestPredictImageUnavailablePipelineFailsClosed(t *testing.T) {
	reg := &Registry{} // nothing loaded
	svc := newTestService(t, reg, &fakeRunner{}, &fakeCropRepo{}, &fakeSoilRepo{}, &fakeUploadStore{})

	_, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi", FileName: "leaf.png", Data: testPNG(t),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("expected MODEL_UNAVAILABLE, got %v", err)
	}
	if !svc.Degraded() {
		t.Fatal("expected degraded service")
	}
}

func TestPredictImagePersistFailureSurfaces(t *testing.T) {
	reg := &Registry{cropHealth: imageManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.9}}}
	crops := &fakeCropRepo{err: errors.New("db down")}
	svc := newTestService(t, reg, runner, crops, &fakeSoilRepo{}, &fakeUploadStore{})

	_, err := svc.PredictImage(context.Background(), PredictImageInput{
		Username: "ravi", FileName: "leaf.png", Data: testPNG(t),
	})
	if err == nil {
		t.Fatal("success must never be reported without a committed row")
	}
}

func TestRecommendCropEncodesAndPersists(t *testing.T) {
	reg := &Registry{recommender: tabularManifest()}
	runner := &fakeRunner{rows: [][]float64{{0.1, 0.2, 0.7}}}
	soil := &fakeSoilRepo{}
	svc := newTestService(t, reg, runner, &fakeCropRepo{}, soil, &fakeUploadStore{})

	result, err := svc.RecommendCrop(context.Background(), SoilInput{
		Username: "ravi", PH: 6.4, Moisture: 38, SoilType: "loamy", Temperature: 28,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recommendation != "cotton" {
		t.Fatalf("expected argmax label cotton, got %q", result.Recommendation)
	}
	if len(soil.created) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(soil.created))
	}
	if soil.created[0].Recommendation != "cotton" {
		t.Fatalf("row must carry the recommendation, got %q", soil.created[0].Recommendation)
	}

	features, ok := runner.lastInput.([][]float64)
	if !ok {
		t.Fatalf("expected [][]float64 input, got %T", runner.lastInput)
	}
	if len(features) != 1 || len(features[0]) != 7 {
		t.Fatalf("unexpected feature shape %v", features)
	}
	if features[0][2] != 1 {
		t.Fatalf("expected loamy encoded as 1, got %f", features[0][2])
	}
}

func TestRecommendCropUnknownSoilType(t *testing.T) {
	reg := &Registry{recommender: tabularManifest()}
	runner := &fakeRunner{rows: [][]float64{{1, 0, 0}}}
	soil := &fakeSoilRepo{}
	svc := newTestService(t, reg, runner, &fakeCropRepo{}, soil, &fakeUploadStore{})

	_, err := svc.RecommendCrop(context.Background(), SoilInput{
		Username: "ravi", PH: 6.4, Moisture: 38, SoilType: "volcanic", Temperature: 28,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatal("runner must not be called for unknown soil types")
	}
	if len(soil.created) != 0 {
		t.Fatal("nothing may be persisted for rejected input")
	}
}

func TestRecommendCropRunnerFailureIsDependencyError(t *testing.T) {
	reg := &Registry{recommender: tabularManifest()}
	runner := &fakeRunner{err: pkgerrors.New(pkgerrors.CodeDependency, "runner timeout")}
	svc := newTestService(t, reg, runner, &fakeCropRepo{}, &fakeSoilRepo{}, &fakeUploadStore{})

	_, err := svc.RecommendCrop(context.Background(), SoilInput{
		Username: "ravi", PH: 6.4, Moisture: 38, SoilType: "Clay", Temperature: 28,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRecommendCropEmptyPredictionRowIsDependencyError(t *testing.T) {
	reg := &Registry{recommender: tabularManifest()}
	runner := &fakeRunner{rows: [][]float64{{}}}
	soil := &fakeSoilRepo{}
	svc := newTestService(t, reg, runner, &fakeCropRepo{}, soil, &fakeUploadStore{})

	_, err := svc.RecommendCrop(context.Background(), SoilInput{
		Username: "ravi", PH: 6.4, Moisture: 38, SoilType: "Clay", Temperature: 28,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(soil.created) != 0 {
		t.Fatal("an empty runner row must never persist a recommendation")
	}
}

func TestLoadManifestMissingArtifactIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crop_health.json")
	manifest := `{
		"name": "crop_health_cnn_v1",
		"artifact_path": "missing.h5",
		"runner_url": "http://runner/crop-health",
		"input_width": 150,
		"input_height": 150,
		"normalization": "unit",
		"positive_label": "Healthy",
		"negative_label": "Unhealthy",
		"threshold": 0.5
	}`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestLoadManifestResolvesRelativeArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "crop_health.h5"), []byte("weights"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	path := filepath.Join(dir, "crop_health.json")
	manifest := `{
		"name": "crop_health_cnn_v1",
		"artifact_path": "crop_health.h5",
		"runner_url": "http://runner/crop-health",
		"input_width": 150,
		"input_height": 150,
		"normalization": "unit",
		"positive_label": "Healthy",
		"negative_label": "Unhealthy",
		"threshold": 0.5
	}`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if err := m.ValidateImage(); err != nil {
		t.Fatalf("validate image manifest: %v", err)
	}
}

func TestValidateImageFeatureExtractorRequiresImageNet(t *testing.T) {
	m := imageManifest()
	m.FeatureExtractor = true

	if err := m.ValidateImage(); err == nil {
		t.Fatal("unit scaling must be rejected for a feature extractor artifact")
	}

	m.Normalization = enums.NormalizationImageNet
	if err := m.ValidateImage(); err != nil {
		t.Fatalf("imagenet pairing must validate: %v", err)
	}
}

func TestDecodeDataURI(t *testing.T) {
	raw := testPNG(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	decoded, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("decode data uri: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Fatal("decoded bytes differ from original")
	}

	if _, err := DecodeDataURI("data:image/png;base64"); err == nil {
		t.Fatal("expected error for data uri without payload")
	}
	if _, err := DecodeDataURI("!!not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestImageNetNormalizationShiftsValues(t *testing.T) {
	m := imageManifest()
	m.Normalization = enums.NormalizationImageNet
	m.FeatureExtractor = true

	img, _, err := DecodeUpload(testPNG(t))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tensor, err := Preprocess(img, m)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	outOfUnit := false
	for _, row := range tensor[0] {
		for _, px := range row {
			for _, v := range px {
				if v < 0 || v > 1 {
					outOfUnit = true
				}
			}
		}
	}
	if !outOfUnit {
		t.Fatal("imagenet normalization should shift values outside [0,1]")
	}
}
