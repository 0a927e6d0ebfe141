package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/application"
	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/mlclient"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
	"github.com/agrihelp/agrihelp-api/pkg/response"
	"github.com/agrihelp/agrihelp-api/pkg/validation"
)

type PredictionHandler struct {
	Svc    *application.PredictionService
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewPredictionHandler(svc *application.PredictionService, cfg *config.Config, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{Svc: svc, Cfg: cfg, Logger: logger}
}

// Pointers so that a legitimate 0 passes "required".
type cropRequest struct {
	Nitrogen    *float64 `json:"nitrogen" binding:"required,nutrient"`
	Phosphorus  *float64 `json:"phosphorus" binding:"required,nutrient"`
	Potassium   *float64 `json:"potassium" binding:"required,nutrient"`
	Temperature *float64 `json:"temperature" binding:"required,gte=0,lte=50"`
	Humidity    *float64 `json:"humidity" binding:"required,percent"`
	PH          *float64 `json:"ph" binding:"required,phlevel"`
	Rainfall    *float64 `json:"rainfall" binding:"required,gte=0,lte=500"`
}

type fertilizerRequest struct {
	Temperature *float64 `json:"temperature" binding:"required,gte=0,lte=50"`
	Moisture    *float64 `json:"moisture" binding:"required,percent"`
	Rainfall    *float64 `json:"rainfall" binding:"required,gte=0,lte=500"`
	PH          *float64 `json:"ph" binding:"required,phlevel"`
	Nitrogen    *float64 `json:"nitrogen" binding:"required,nutrient"`
	Phosphorus  *float64 `json:"phosphorus" binding:"required,nutrient"`
	Potassium   *float64 `json:"potassium" binding:"required,nutrient"`
	Carbon      *float64 `json:"carbon" binding:"required,gte=0"`
	Soil        string   `json:"soil" binding:"required,soiltype"`
	Crop        string   `json:"crop" binding:"required,croptype"`
}

type predictionResponse struct {
	ID         string    `json:"_id"`
	Kind       string    `json:"kind"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toPredictionResponses(in []entity.Prediction) []predictionResponse {
	out := make([]predictionResponse, 0, len(in))
	for _, p := range in {
		out = append(out, predictionResponse{
			ID: p.ID, Kind: string(p.Kind), Label: p.Label, Confidence: p.Confidence,
			Success: p.Success, Error: p.Error, CreatedAt: p.CreatedAt,
		})
	}
	return out
}

func (h *PredictionHandler) Crop(c *gin.Context) {
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Crop(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), mlclient.CropRequest{
		Nitrogen: *req.Nitrogen, Phosphorus: *req.Phosphorus, Potassium: *req.Potassium,
		Temperature: *req.Temperature, Humidity: *req.Humidity, PH: *req.PH, Rainfall: *req.Rainfall,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "Crop prediction", nil)
}

func (h *PredictionHandler) Fertilizer(c *gin.Context) {
	var req fertilizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Fertilizer(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), mlclient.FertilizerRequest{
		Temperature: *req.Temperature, Moisture: *req.Moisture, Rainfall: *req.Rainfall, PH: *req.PH,
		Nitrogen: *req.Nitrogen, Phosphorus: *req.Phosphorus, Potassium: *req.Potassium, Carbon: *req.Carbon,
		Soil: req.Soil, Crop: req.Crop,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "Fertilizer recommendation", nil)
}

// Disease expects the leaf photo in multipart field "file".
func (h *PredictionHandler) Disease(c *gin.Context) {
	if h.Cfg != nil && h.Cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Cfg.MaxUploadBytes+1<<20)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respondError(c, h.Logger, err)
			return
		}
		response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, map[string]string{"file": "is required"})
		return
	}
	up, closeFn, err := openUpload(fh, h.Cfg)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer closeFn()

	res, err := h.Svc.Disease(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), up.Filename, up.Reader)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "Disease prediction", nil)
}

func (h *PredictionHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.Svc.History(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toPredictionResponses(items), "Prediction history", gin.H{"count": len(items)})
}

// Health reports whether the ML service answers.
func (h *PredictionHandler) Health(c *gin.Context) {
	if err := h.Svc.Health(c.Request.Context()); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"ml_service": "up"}, "ML service is running", nil)
}
