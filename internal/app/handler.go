package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vehement/geoworld/internal/cache"
	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/world"
	"github.com/vehement/geoworld/pkg/logger"
)

type handler struct {
	query  *world.Query
	cache  *cache.TileCache
	logger logger.Logger
}

func newRouter(query *world.Query, tc *cache.TileCache, l logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(l))

	h := &handler{query: query, cache: tc, logger: l}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/cache/stats", h.cacheStats)
		v1.GET("/cache/tiles", h.cacheTiles)
		v1.GET("/tiles/:z/:x/:y", h.tile)
		v1.POST("/prefetch", h.prefetch)
	}

	return r
}

func requestLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		c.Next()

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) cacheStats(c *gin.Context) {
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"hitRate": stats.HitRate(),
	})
}

func (h *handler) cacheTiles(c *gin.Context) {
	tiles := h.cache.CachedTiles()
	c.JSON(http.StatusOK, gin.H{
		"count": len(tiles),
		"tiles": tiles,
	})
}

// tile serves one processed world tile as JSON.
func (h *handler) tile(c *gin.Context) {
	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errZ != nil || errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tile coordinates must be integers"})
		return
	}

	tile := geo.TileID{X: x, Y: y, Zoom: z}
	if !tile.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tile " + tile.String()})
		return
	}

	data := h.query.QueryTile(c.Request.Context(), tile)
	if data.Failed() {
		h.logger.Warn("tile request failed", "tile", tile.String(), "error", data.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": data.Err})
		return
	}

	c.JSON(http.StatusOK, data)
}

type prefetchRequest struct {
	South   float64 `json:"south" binding:"gte=-90,lte=90"`
	West    float64 `json:"west" binding:"gte=-180,lte=180"`
	North   float64 `json:"north" binding:"gte=-90,lte=90"`
	East    float64 `json:"east" binding:"gte=-180,lte=180"`
	MinZoom int     `json:"minZoom" binding:"required,gte=1,lte=19"`
	MaxZoom int     `json:"maxZoom" binding:"required,gte=1,lte=19"`
}

func (h *handler) prefetch(c *gin.Context) {
	var req prefetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bounds := geo.NewBoundingBox(req.South, req.West, req.North, req.East)
	if !bounds.Valid() || req.MinZoom > req.MaxZoom {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounds or zoom range"})
		return
	}

	n := h.query.PrefetchArea(c.Request.Context(), bounds, req.MinZoom, req.MaxZoom, nil)
	c.JSON(http.StatusOK, gin.H{"prefetched": n})
}
