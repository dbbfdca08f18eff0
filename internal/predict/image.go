package predict

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"

	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

// ImageNet per-channel statistics, RGB order.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Tensor is a batch of H×W×RGB float32 planes as fed to the runner.
type Tensor [][][][]float32

// DecodeUpload turns raw upload bytes into an image. Undecodable bytes are a
// validation error; nothing happens downstream of this.
func DecodeUpload(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "uploaded file is not a decodable image")
	}
	return img, format, nil
}

// DecodeDataURI extracts the raw bytes from a base64 data URI like
// "data:image/jpeg;base64,...". A bare base64 string is accepted too.
func DecodeDataURI(value string) ([]byte, error) {
	payload := value
	if strings.HasPrefix(value, "data:") {
		idx := strings.Index(value, ",")
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed data uri")
		}
		payload = value[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base64 image payload")
	}
	return data, nil
}

// Preprocess resizes, normalizes and batches the image exactly as the
// manifest's artifact expects.
func Preprocess(img image.Image, m *Manifest) (Tensor, error) {
	resized := image.NewRGBA(image.Rect(0, 0, m.InputWidth, m.InputHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	plane := make([][][]float32, m.InputHeight)
	for y := 0; y < m.InputHeight; y++ {
		row := make([][]float32, m.InputWidth)
		for x := 0; x < m.InputWidth; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			px := [3]float32{
				float32(r>>8) / 255.0,
				float32(g>>8) / 255.0,
				float32(b>>8) / 255.0,
			}
			if m.Normalization == enums.NormalizationImageNet {
				for c := range px {
					px[c] = (px[c] - imagenetMean[c]) / imagenetStd[c]
				}
			}
			row[x] = px[:]
		}
		plane[y] = row
	}

	tensor := Tensor{plane}
	if err := checkShape(tensor, m); err != nil {
		return nil, err
	}
	return tensor, nil
}

// checkShape verifies the preprocessing output matches the manifest's
// expected [1][h][w][3] shape before anything is sent to the runner.
func checkShape(t Tensor, m *Manifest) error {
	if len(t) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tensor must be a batch of one")
	}
	if len(t[0]) != m.InputHeight {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("tensor height %d does not match expected %d", len(t[0]), m.InputHeight))
	}
	for _, row := range t[0] {
		if len(row) != m.InputWidth {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tensor width %d does not match expected %d", len(row), m.InputWidth))
		}
		for _, px := range row {
			if len(px) != 3 {
				return pkgerrors.New(pkgerrors.CodeValidation, "tensor pixels must carry 3 channels")
			}
		}
	}
	return nil
}
