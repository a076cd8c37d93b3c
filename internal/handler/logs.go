package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/repository"

	"github.com/gin-gonic/gin"
)

// LogsHandler pages through the activity log. Admin only.
type LogsHandler struct {
	repo repository.ActivityLogRepository
}

func NewLogsHandler(repo repository.ActivityLogRepository) *LogsHandler {
	return &LogsHandler{repo: repo}
}

func (h *LogsHandler) List(c *gin.Context) {
	var f dto.LogFilter
	if !bindQuery(c, &f) {
		return
	}

	rows, total, err := h.repo.List(c.Request.Context(), f.Type, f.Page, f.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := make([]dto.LogItem, 0, len(rows))
	for _, r := range rows {
		item := dto.LogItem{
			ID:        r.ID.String(),
			Type:      r.LogType,
			Message:   r.Message,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if r.Context != nil {
			// A context that fails to decode is dropped rather than failing the page.
			_ = json.Unmarshal([]byte(*r.Context), &item.Context)
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, dto.LogListResponse{Data: items, Total: total, Page: f.Page, Limit: f.Limit})
}
