package handlers

import (
	"errors"
	"net/http"

	"github.com/facilitydesk/facilitydesk/internal/cities"
	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/requests"
	"github.com/facilitydesk/facilitydesk/internal/tracker"
	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/gin-gonic/gin"
)

type idsRequest struct {
	IDs []any `json:"ids"`
}

type updateRequest struct {
	ID          any           `json:"id"`
	UpdatedItem models.Record `json:"updatedItem"`
}

type assignRequest struct {
	IDs     []any `json:"ids"`
	Workers []any `json:"workers"`
}

// InstitutionHandler serves the per-institution collections.
type InstitutionHandler struct {
	requests *requests.Service
	workers  *workers.Service
	cities   *cities.Service
	tracker  tracker.Tracker
}

func NewInstitutionHandler(r *requests.Service, w *workers.Service, c *cities.Service, t tracker.Tracker) *InstitutionHandler {
	return &InstitutionHandler{requests: r, workers: w, cities: c, tracker: t}
}

// Register mounts routes on a group rooted at /institutions/:institutionId.
func (h *InstitutionHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/maintenance_requests", h.list(requests.Open))
	rg.POST("/maintenance_requests", h.submit)
	rg.PUT("/maintenance_requests", h.replaceAll)
	rg.POST("/maintenance_requests/update", h.update)
	rg.POST("/complete", h.complete)
	rg.POST("/delete", h.delete(requests.Open))
	rg.POST("/assign", h.assign)
	rg.PUT("/todo/:itemId", h.replace(requests.Open))

	rg.GET("/completed_maintenance_requests", h.list(requests.Completed))
	rg.POST("/completed_maintenance_requests/reopen", h.reopen)
	rg.POST("/completed_maintenance_requests/delete", h.delete(requests.Completed))
	rg.PUT("/completed/:itemId", h.replace(requests.Completed))

	rg.GET("/workers", h.listWorkers)
	rg.POST("/workers", h.saveWorkers)
	rg.POST("/workers/delete", h.deleteWorker)

	rg.GET("/cities", h.listCities)
	rg.POST("/cities", h.saveCities)
	rg.POST("/cities/delete", h.deleteCity)
	rg.POST("/cities/deleteStreet", h.deleteStreet)

	rg.GET("/last-update", h.lastUpdate)
}

func inst(c *gin.Context) string { return c.Param("institutionId") }

func (h *InstitutionHandler) list(set requests.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.requests.List(c.Request.Context(), inst(c), set)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func (h *InstitutionHandler) submit(c *gin.Context) {
	var item models.Record
	if err := c.ShouldBindJSON(&item); err != nil || item == nil {
		fail(c, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	if err := h.requests.Submit(c.Request.Context(), inst(c), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *InstitutionHandler) replaceAll(c *gin.Context) {
	var items []models.Record
	if err := c.ShouldBindJSON(&items); err != nil {
		fail(c, http.StatusBadRequest, "Request body must be a JSON array")
		return
	}
	if err := h.requests.ReplaceAll(c.Request.Context(), inst(c), items); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func bindIDs(c *gin.Context) ([]string, bool) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDs == nil {
		fail(c, http.StatusBadRequest, "ids must be an array")
		return nil, false
	}
	return models.IDStrings(req.IDs), true
}

func (h *InstitutionHandler) complete(c *gin.Context) {
	ids, valid := bindIDs(c)
	if !valid {
		return
	}
	if err := h.requests.Complete(c.Request.Context(), inst(c), ids); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) reopen(c *gin.Context) {
	ids, valid := bindIDs(c)
	if !valid {
		return
	}
	if err := h.requests.Reopen(c.Request.Context(), inst(c), ids); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) delete(set requests.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, valid := bindIDs(c)
		if !valid {
			return
		}
		if err := h.requests.Delete(c.Request.Context(), inst(c), set, ids); err != nil {
			respondError(c, err)
			return
		}
		ok(c)
	}
}

func (h *InstitutionHandler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := models.IDString(req.ID)
	if id == "" {
		fail(c, http.StatusBadRequest, "Invalid id")
		return
	}
	err := h.requests.Update(c.Request.Context(), inst(c), id, req.UpdatedItem)
	if errors.Is(err, requests.ErrNotFound) {
		fail(c, http.StatusBadRequest, "Invalid id")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) replace(set requests.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.Record
		if err := c.ShouldBindJSON(&body); err != nil || body == nil {
			fail(c, http.StatusBadRequest, "Request body must be a JSON object")
			return
		}
		if err := h.requests.Replace(c.Request.Context(), inst(c), set, c.Param("itemId"), body); err != nil {
			respondError(c, err)
			return
		}
		ok(c)
	}
}

func (h *InstitutionHandler) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDs == nil || req.Workers == nil {
		fail(c, http.StatusBadRequest, "ids and workers must be arrays")
		return
	}
	if err := h.requests.Assign(c.Request.Context(), inst(c), models.IDStrings(req.IDs), req.Workers); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) listWorkers(c *gin.Context) {
	roster, err := h.workers.List(c.Request.Context(), inst(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *InstitutionHandler) saveWorkers(c *gin.Context) {
	var roster []models.Record
	if err := c.ShouldBindJSON(&roster); err != nil {
		fail(c, http.StatusBadRequest, "Request body must be a JSON array")
		return
	}
	if err := h.workers.ReplaceAll(c.Request.Context(), inst(c), roster); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) deleteWorker(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username is required")
		return
	}
	if err := h.workers.Delete(c.Request.Context(), inst(c), req.Username); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) listCities(c *gin.Context) {
	list, err := h.cities.List(c.Request.Context(), inst(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *InstitutionHandler) saveCities(c *gin.Context) {
	var list []models.Record
	if err := c.ShouldBindJSON(&list); err != nil {
		fail(c, http.StatusBadRequest, "Request body must be a JSON array")
		return
	}
	if err := h.cities.ReplaceAll(c.Request.Context(), inst(c), list); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) deleteCity(c *gin.Context) {
	var req struct {
		CityName string `json:"cityName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "cityName is required")
		return
	}
	if err := h.cities.Delete(c.Request.Context(), inst(c), req.CityName); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *InstitutionHandler) deleteStreet(c *gin.Context) {
	var req struct {
		CityName   string `json:"cityName" binding:"required"`
		StreetName string `json:"streetName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "cityName and streetName are required")
		return
	}
	if err := h.cities.DeleteStreet(c.Request.Context(), inst(c), req.CityName, req.StreetName); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

// lastUpdate reports null for both fields until the institution sees a
// tracked write or is seeded at startup.
func (h *InstitutionHandler) lastUpdate(c *gin.Context) {
	id := inst(c)
	if err := institution.ValidateID(id); err != nil {
		respondError(c, err)
		return
	}
	t, found, err := h.tracker.LastUpdate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"lastUpdate": nil, "timestamp": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lastUpdate": t.UTC().Format(tracker.ISOLayout), "timestamp": t.UnixMilli()})
}
