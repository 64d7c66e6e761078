package api

import (
	"io/fs"
	"net/http"

	"daily_tracker/internal/records"
	"daily_tracker/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers the daily record CRUD endpoints and the dashboard on
// the given Gin engine, binding each HTTP method and path to its handler.
func InitRoutes(e *gin.Engine, recordsService *records.Service, logger *zap.Logger) {
	recordsHandler := NewRecordsHandler(recordsService, logger)

	group := e.Group("/api/daily-records")
	group.GET("", recordsHandler.handleListRecords)
	group.POST("", recordsHandler.handleCreateRecord)
	group.GET("/:id", recordsHandler.handleGetRecord)
	group.PUT("/:id", recordsHandler.handleUpdateRecord)
	group.DELETE("/:id", recordsHandler.handleDeleteRecord)

	registerDashboard(e, logger)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}

// NewRouter builds an engine with recovery and request logging and all
// routes registered.
func NewRouter(recordsService *records.Service, logger *zap.Logger) *gin.Engine {
	e := gin.New()
	e.Use(RequestLogger(logger), gin.Recovery())
	InitRoutes(e, recordsService, logger)
	return e
}

// registerDashboard serves the embedded single-page dashboard.
func registerDashboard(e *gin.Engine, logger *zap.Logger) {
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		logger.Error("dashboard assets unavailable", zap.Error(err))
		return
	}
	index, err := fs.ReadFile(static, "index.html")
	if err != nil {
		logger.Error("dashboard index unavailable", zap.Error(err))
		return
	}

	serveIndex := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
	e.GET("/", serveIndex)
	e.GET("/dashboard", serveIndex)
	e.StaticFS("/static", http.FS(static))
}
