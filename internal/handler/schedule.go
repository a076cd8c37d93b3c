package handler

import (
	"context"
	"net/http"
	"time"

	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/settings"

	"github.com/gin-gonic/gin"
)

// ScheduleController is the part of worker.Scheduler the handlers use.
type ScheduleController interface {
	ScheduleUpdate(ctx context.Context) error
	ClearScheduledUpdate(ctx context.Context) error
	NextScheduledUpdate(ctx context.Context) (time.Time, bool, error)
	Location() *time.Location
}

type ScheduleHandler struct {
	scheduler ScheduleController
	settings  settings.Provider
}

func NewScheduleHandler(scheduler ScheduleController, provider settings.Provider) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, settings: provider}
}

// Get reports the next registered run. Public.
func (h *ScheduleHandler) Get(c *gin.Context) {
	h.respond(c)
}

// Apply recomputes the next run from the current settings. Admin only.
func (h *ScheduleHandler) Apply(c *gin.Context) {
	if err := h.scheduler.ScheduleUpdate(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c)
}

// Clear removes the registration. Admin only.
func (h *ScheduleHandler) Clear(c *gin.Context) {
	if err := h.scheduler.ClearScheduledUpdate(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c)
}

func (h *ScheduleHandler) respond(c *gin.Context) {
	ctx := c.Request.Context()
	next, ok, err := h.scheduler.NextScheduledUpdate(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	snap, err := h.settings.Current(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := dto.ScheduleResponse{
		Scheduled: ok,
		Frequency: snap.Schedule.Frequency.Name(),
		Timezone:  h.scheduler.Location().String(),
	}
	if ok {
		s := next.Format(time.RFC3339)
		resp.NextRun = &s
		resp.Period = schedule.PeriodOf(snap.Schedule.Frequency).String()
	}
	c.JSON(http.StatusOK, resp)
}
