package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/agroscan/agroscan-backend/api/middleware"
	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/api/validators"
	"github.com/agroscan/agroscan-backend/internal/predict"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

const defaultMaxUploadMB = 10

// imageJSONBody is the JSON alternative to a multipart upload. Image holds a
// base64 string or data URI.
type imageJSONBody struct {
	Image    string `json:"image" validate:"required"`
	FileName string `json:"file_name" validate:"omitempty,max=255"`
}

type recommendBody struct {
	PH          float64 `json:"ph" validate:"required"`
	Moisture    float64 `json:"moisture" validate:"required"`
	SoilType    string  `json:"soil_type" validate:"required,max=64"`
	Temperature float64 `json:"temperature"`
}

// CropHealthPredict accepts a leaf photo and returns the stored
// classification. Multipart uploads use the "image" field; JSON bodies carry
// base64 content.
func CropHealthPredict(svc predict.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	maxBytes := int64(maxUploadMB) << 20

	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "prediction service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		input, err := imageInputFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Username = middleware.UsernameFromContext(r.Context())

		result, err := svc.PredictImage(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CropRecommend accepts a soil reading and returns the stored crop
// recommendation.
func CropRecommend(svc predict.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "prediction service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recommendBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecommendCrop(r.Context(), predict.SoilInput{
			Username:    middleware.UsernameFromContext(r.Context()),
			PH:          body.PH,
			Moisture:    body.Moisture,
			SoilType:    body.SoilType,
			Temperature: body.Temperature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func imageInputFromRequest(r *http.Request) (*predict.PredictImageInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file is required")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image upload")
		}
		return &predict.PredictImageInput{FileName: header.Filename, Data: data}, nil
	}

	var body imageJSONBody
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return nil, err
	}
	data, err := predict.DecodeDataURI(body.Image)
	if err != nil {
		return nil, err
	}
	return &predict.PredictImageInput{FileName: body.FileName, Data: data}, nil
}
