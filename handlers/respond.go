package handlers

import (
	"errors"
	"net/http"

	"github.com/facilitydesk/facilitydesk/internal/cities"
	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/media"
	"github.com/facilitydesk/facilitydesk/internal/requests"
	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, institution.ErrInvalidID):
		fail(c, http.StatusBadRequest, "Invalid institution id")
	case errors.Is(err, institution.ErrInvalidFilename):
		fail(c, http.StatusBadRequest, "Invalid filename")
	case errors.Is(err, requests.ErrNotFound):
		fail(c, http.StatusNotFound, "Item not found")
	case errors.Is(err, workers.ErrNotFound):
		fail(c, http.StatusNotFound, "Worker not found")
	case errors.Is(err, cities.ErrCityNotFound):
		fail(c, http.StatusNotFound, "City not found")
	case errors.Is(err, cities.ErrStreetNotFound):
		fail(c, http.StatusNotFound, "Street not found")
	case errors.Is(err, workers.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, media.ErrNotFound):
		fail(c, http.StatusNotFound, "File not found")
	case errors.Is(err, media.ErrUnsupportedMediaType):
		fail(c, http.StatusUnsupportedMediaType, "Only image and video files are allowed")
	case errors.Is(err, media.ErrPayloadTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, "File too large")
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}
