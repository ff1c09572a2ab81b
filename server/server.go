// Package server exposes the classified hawker tables over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hawker-closures/models"
	"hawker-closures/services"
	"hawker-closures/utils"
)

// Map defaults centre the view on Singapore.
const (
	mapCentreLat = 1.3521
	mapCentreLng = 103.8198
	mapZoom      = 11.5
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*models.PipelineResult, error)
}

// Marker is one dot on the hawker map.
type Marker struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Colour    string  `json:"colour"`
	Status    string  `json:"status"`
	Tooltip   string  `json:"tooltip"`
}

// MapResponse is the payload of GET /api/map.
type MapResponse struct {
	CentreLat  float64  `json:"centre_lat"`
	CentreLng  float64  `json:"centre_lng"`
	Zoom       float64  `json:"zoom"`
	AccurateAs string   `json:"accurate_as_of"`
	Markers    []Marker `json:"markers"`
}

// Handler serves pipeline output. Every request triggers one fresh run.
type Handler struct {
	runner Runner
	logger *utils.Logger
	clock  func() time.Time
}

// NewHandler creates a Handler. clock defaults to time.Now when nil.
func NewHandler(runner Runner, logger *utils.Logger, clock func() time.Time) *Handler {
	if clock == nil {
		clock = time.Now
	}
	return &Handler{runner: runner, logger: logger, clock: clock}
}

// NewRouter registers every route on a fresh gin engine. gatherer backs /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.GET("/hawkers", h.GetHawkers)
	api.GET("/hawkers/:status", h.GetHawkersByStatus)
	api.GET("/map", h.GetMap)
	api.GET("/centres", h.GetCentres)
	api.GET("/closures", h.GetClosures)
	api.GET("/remarks", h.GetRemarks)

	return router
}

// GetHawkers handles GET /api/hawkers: the combined data table.
func (h *Handler) GetHawkers(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accurate_as_of": accurateAsOf(result.GeneratedAt),
		"rows":           services.BuildTable(result.Classification),
		"excluded":       result.Classification.Excluded,
	})
}

// GetHawkersByStatus handles GET /api/hawkers/:status for open, closing-soon or closed.
func (h *Handler) GetHawkersByStatus(c *gin.Context) {
	status, known := statusFromPath(c.Param("status"))
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown status, want open, closing-soon or closed"})
		return
	}

	result, ok := h.run(c)
	if !ok {
		return
	}
	centres := result.Classification.Bucket(status)
	if centres == nil {
		centres = []*models.ClassifiedCentre{}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "centres": centres})
}

// GetMap handles GET /api/map: one coloured marker per classified centre.
func (h *Handler) GetMap(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}

	all := result.Classification.All()
	resp := MapResponse{
		CentreLat:  mapCentreLat,
		CentreLng:  mapCentreLng,
		Zoom:       mapZoom,
		AccurateAs: accurateAsOf(result.GeneratedAt),
		Markers:    make([]Marker, 0, len(all)),
	}
	for _, cc := range all {
		resp.Markers = append(resp.Markers, Marker{
			Name:      cc.CleanName,
			Latitude:  cc.Latitude,
			Longitude: cc.Longitude,
			Colour:    cc.Colour,
			Status:    string(cc.Status),
			Tooltip:   cc.Description,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetCentres handles GET /api/centres.
func (h *Handler) GetCentres(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"centres": result.Centres})
}

// GetClosures handles GET /api/closures.
func (h *Handler) GetClosures(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"closures": result.Closures})
}

// GetRemarks handles GET /api/remarks.
func (h *Handler) GetRemarks(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"remarks": result.Remarks})
}

func (h *Handler) run(c *gin.Context) (*models.PipelineResult, bool) {
	result, err := h.runner.Run(c.Request.Context(), h.clock())
	if err != nil {
		h.logger.Error("[server] %s %s: pipeline failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	return result, true
}

func statusFromPath(s string) (models.Status, bool) {
	switch s {
	case "open":
		return models.StatusOpen, true
	case "closing-soon":
		return models.StatusClosingSoon, true
	case "closed":
		return models.StatusClosed, true
	}
	return "", false
}

func accurateAsOf(t time.Time) string {
	return t.In(services.Singapore).Format("02 Jan 2006 15:04:05")
}
