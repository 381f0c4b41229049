package handlers

import (
	"errors"
	"net/http"

	"github.com/facilitydesk/facilitydesk/internal/media"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file ceiling for form fields
// and part headers.
const multipartOverhead = 1 << 20

// MediaHandler serves attachment upload, download and delete.
type MediaHandler struct {
	manager   *media.Manager
	publicURL string
}

// NewMediaHandler builds media URLs from publicURL, or from the request host
// when publicURL is empty.
func NewMediaHandler(m *media.Manager, publicURL string) *MediaHandler {
	return &MediaHandler{manager: m, publicURL: publicURL}
}

func (h *MediaHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/upload-media", h.upload)
	rg.GET("/media/:filename", h.serve)
	rg.DELETE("/media/:filename", h.delete)
}

func (h *MediaHandler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.manager.MaxBytes()+multipartOverhead)
	fh, err := c.FormFile("media")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, media.ErrPayloadTooLarge)
			return
		}
		fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	id := inst(c)
	filename, err := h.manager.Upload(c.Request.Context(), id, media.Upload{
		ItemID:       c.PostForm("itemId"),
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"mediaUrl": media.URL(h.baseURL(c), id, filename),
		"filename": filename,
	})
}

func (h *MediaHandler) baseURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *MediaHandler) serve(c *gin.Context) {
	obj, err := h.manager.Open(c.Request.Context(), inst(c), c.Param("filename"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer obj.Close()
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj, nil)
}

func (h *MediaHandler) delete(c *gin.Context) {
	if err := h.manager.Delete(c.Request.Context(), inst(c), c.Param("filename")); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}
