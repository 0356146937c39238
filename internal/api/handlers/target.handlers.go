package routes

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"obstarget/internal/export"
	"obstarget/internal/model"
	"obstarget/internal/service/target"

	"github.com/gin-gonic/gin"
)

type TargetHandlers struct {
	service *target.TargetService
}

// driverStateRequest carries the pointing computed by the driver, in radians
type driverStateRequest struct {
	AltRad    *float64 `json:"alt_rad" binding:"required"`
	AzRad     *float64 `json:"az_rad" binding:"required"`
	RotRad    *float64 `json:"rot_rad" binding:"required"`
	TelAltRad *float64 `json:"telalt_rad" binding:"required"`
	TelAzRad  *float64 `json:"telaz_rad" binding:"required"`
	TelRotRad *float64 `json:"telrot_rad" binding:"required"`
	AngRad    *float64 `json:"ang_rad" binding:"required"`
}

type expTimeRequest struct {
	ExpTime *float64 `json:"exp_time"`
}

type noteRequest struct {
	Note string `json:"note"`
}

// SetupTargetHandlers registers the target endpoints
func SetupTargetHandlers(router *gin.RouterGroup, targetService *target.TargetService) {
	h := &TargetHandlers{service: targetService}

	targets := router.Group("/targets")
	targets.GET("", h.List)
	targets.POST("/topic", h.AddFromTopic)
	targets.GET("/:id", h.Get)
	targets.PUT("/:id", h.Replace)
	targets.DELETE("/:id", h.Delete)
	targets.GET("/:id/summary", h.Summary)
	targets.PUT("/:id/driver-state", h.ApplyDriverState)
	targets.PUT("/:id/conditions", h.UpdateConditions)
	targets.PUT("/:id/exp-time", h.SetExpTime)
	targets.PUT("/:id/note", h.SetNote)

	router.GET("/export/targets.geojson", h.ExportGeoJSON)
}

// List returns all targets ordered by id
func (h *TargetHandlers) List(c *gin.Context) {
	writeTargets(c, http.StatusOK, h.service.List())
}

// Get returns one target in its JSON form
func (h *TargetHandlers) Get(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	t, err := h.service.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// Summary returns the one-line text summary of a target
func (h *TargetHandlers) Summary(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	t, err := h.service.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, t.String())
}

// Replace stores the JSON target in the request body under :id
func (h *TargetHandlers) Replace(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.Replace(id, body)
	if err != nil {
		// everything Replace rejects is a malformed body
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// AddFromTopic accepts a scheduler topic record, the same format as the MQTT feed
func (h *TargetHandlers) AddFromTopic(c *gin.Context) {
	var record model.TargetTopic
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := h.service.AddFromTopic(record)
	writeTarget(c, http.StatusCreated, t)
}

// Delete removes a target
func (h *TargetHandlers) Delete(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyDriverState copies the driver pointing in the body onto the target
func (h *TargetHandlers) ApplyDriverState(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req driverStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src := &model.Target{
		AltRad:    *req.AltRad,
		AzRad:     *req.AzRad,
		RotRad:    *req.RotRad,
		TelAltRad: *req.TelAltRad,
		TelAzRad:  *req.TelAzRad,
		TelRotRad: *req.TelRotRad,
		AngRad:    *req.AngRad,
	}

	t, err := h.service.ApplyDriverState(id, src)
	if err != nil {
		respondError(c, err)
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// UpdateConditions replaces the observing-condition snapshot
func (h *TargetHandlers) UpdateConditions(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req target.Conditions
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.UpdateConditions(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// SetExpTime sets the total exposure time override; null clears it
func (h *TargetHandlers) SetExpTime(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req expTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.SetExpTimeOverride(id, req.ExpTime)
	if err != nil {
		respondError(c, err)
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// SetNote replaces the scheduler annotation
func (h *TargetHandlers) SetNote(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.SetNote(id, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	writeTarget(c, http.StatusOK, t)
}

// ExportGeoJSON returns all targets as a GeoJSON sky map
func (h *TargetHandlers) ExportGeoJSON(c *gin.Context) {
	fc := export.TargetsToGeoJSON(h.service.List())

	data, err := fc.MarshalJSON()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// writeTarget renders t with its own encoder, which keeps non-finite floats
func writeTarget(c *gin.Context, status int, t *model.Target) {
	data, err := t.ToJSON()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func writeTargets(c *gin.Context, status int, targets []*model.Target) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, t := range targets {
		data, err := t.ToJSON()
		if err != nil {
			respondError(c, err)
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	c.Data(status, "application/json; charset=utf-8", buf.Bytes())
}

func targetID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id: " + c.Param("id")})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, target.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrMissingField), errors.Is(err, target.ErrTargetIDMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
