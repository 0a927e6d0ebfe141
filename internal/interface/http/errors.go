package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/internal/application"
	"github.com/agrihelp/agrihelp-api/pkg/response"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{application.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{application.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{application.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{application.ErrBlogNotFound, http.StatusNotFound, "Blog not found"},
	{application.ErrNotOwner, http.StatusUnauthorized, "Not authorized"},
	{application.ErrTitleRequired, http.StatusBadRequest, "Title is required"},
	{application.ErrContentRequired, http.StatusBadRequest, "Content is required"},
	{application.ErrImageRequired, http.StatusBadRequest, "An image file or image URL is required"},
	{application.ErrInvalidImage, http.StatusBadRequest, "Image must be a JPEG, PNG or GIF"},
	{application.ErrImageDimensions, http.StatusBadRequest, "Image dimensions are too large"},
	{application.ErrImageStoreMissing, http.StatusServiceUnavailable, "Image uploads are not available"},
	{application.ErrEmptyQuery, http.StatusBadRequest, "Search query is required"},
	{application.ErrPredictionUnavailable, http.StatusBadGateway, "Prediction service unavailable"},
	{application.ErrPredictionRejected, http.StatusBadRequest, "Prediction request rejected"},
}

const msgUploadTooLarge = "Upload too large"

// respondError maps service errors to responses. Anything unknown is logged
// and answered with the generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			response.Error[any](c, m.status, m.message, nil)
			return
		}
	}
	if isTooLarge(err) {
		response.Error[any](c, http.StatusRequestEntityTooLarge, msgUploadTooLarge, nil)
		return
	}
	if logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	_ = c.Error(err)
	response.ServerError(c)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}
