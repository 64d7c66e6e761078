package api

import (
	"errors"
	"net/http"
	"strings"

	"daily_tracker/internal/records"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recordsHandler holds the records service and implements HTTP handlers for daily record operations.
type recordsHandler struct {
	recordsService *records.Service
	logger         *zap.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(recordsService *records.Service, logger *zap.Logger) *recordsHandler {
	return &recordsHandler{
		recordsService: recordsService,
		logger:         logger,
	}
}

// handleListRecords handles GET /api/daily-records.
func (h *recordsHandler) handleListRecords(ctx *gin.Context) {
	all, err := h.recordsService.List(ctx.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch records", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	ctx.JSON(http.StatusOK, all)
}

// handleCreateRecord handles POST /api/daily-records.
func (h *recordsHandler) handleCreateRecord(ctx *gin.Context) {
	var req records.CreateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	rec, err := h.recordsService.Create(ctx.Request.Context(), req)
	if err != nil {
		h.writeError(ctx, err, "Failed to create record")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

// handleGetRecord handles GET /api/daily-records/:id.
func (h *recordsHandler) handleGetRecord(ctx *gin.Context) {
	rec, err := h.recordsService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err, "Failed to fetch record")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

// handleUpdateRecord handles PUT /api/daily-records/:id.
func (h *recordsHandler) handleUpdateRecord(ctx *gin.Context) {
	recordID := ctx.Param("id")
	var req records.UpdateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.String("record_id", recordID), zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	rec, err := h.recordsService.Update(ctx.Request.Context(), recordID, req)
	if err != nil {
		h.writeError(ctx, err, "Failed to update record")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

// handleDeleteRecord handles DELETE /api/daily-records/:id.
func (h *recordsHandler) handleDeleteRecord(ctx *gin.Context) {
	if err := h.recordsService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.writeError(ctx, err, "Failed to delete record")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

// writeError maps service errors onto the three response shapes the API
// exposes. Internal details are logged, never returned.
func (h *recordsHandler) writeError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, records.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, records.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		h.logger.Error(fallback,
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.String("record_id", ctx.Param("id")),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// validationMessage strips the sentinel prefix so "validation failed:
// missing required fields" reads as "missing required fields".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), records.ErrValidation.Error()+": ")
	if msg == "" {
		return records.ErrValidation.Error()
	}
	return msg
}
