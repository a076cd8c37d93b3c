package handler

import (
	"context"
	"net/http"

	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdatesHandler exposes the manual update trigger and the connectivity
// probe. Admin only.
type UpdatesHandler struct {
	svc service.UpdateService
}

func NewUpdatesHandler(svc service.UpdateService) *UpdatesHandler {
	return &UpdatesHandler{svc: svc}
}

// Run godoc
// @Summary Run the update pipeline now
// @Tags updates
// @Produce json
// @Param force query bool false "Skip the cache"
// @Param debug query bool false "Include diagnostic detail"
// @Success 200 {object} dto.UpdateResponse
// @Failure 502 {object} dto.UpdateResponse
// @Router /v1/updates [post]
func (h *UpdatesHandler) Run(c *gin.Context) {
	var req dto.UpdateRequest
	if !bindQuery(c, &req) {
		return
	}

	// A triggered run completes even if the caller goes away.
	out := h.svc.Run(context.WithoutCancel(c.Request.Context()), req.Force)

	resp := dto.UpdateResponse{
		Success:   out.Success,
		Message:   out.Message,
		Error:     string(out.Error),
		FromCache: out.FromCache,
		Stats: dto.UpdateStats{
			Inserted: out.Stats.Inserted,
			Updated:  out.Stats.Updated,
			Skipped:  out.Stats.Skipped,
			Errors:   out.Stats.Errors,
		},
	}
	if req.Debug || !out.Success {
		resp.Debug = &dto.UpdateDebug{
			RequestURL:  out.Debug.RequestURL,
			StatusCode:  out.Debug.StatusCode,
			Attempts:    out.Debug.Attempts,
			FetchTimeMS: out.Debug.FetchTime.Milliseconds(),
			TotalTimeMS: out.Debug.TotalTime.Milliseconds(),
			Received:    out.Debug.Received,
			Valid:       out.Debug.Valid,
		}
	}
	c.JSON(statusForOutcome(out), resp)
}

// ConnectionTest probes the API once with a one-row request.
func (h *UpdatesHandler) ConnectionTest(c *gin.Context) {
	res := h.svc.TestConnection(context.WithoutCancel(c.Request.Context()))
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.ConnectionTestResponse{
		Success:    res.Success,
		StatusCode: res.StatusCode,
		LatencyMS:  res.Latency.Milliseconds(),
		Message:    res.Message,
		RequestURL: res.RequestURL,
	})
}

// statusForOutcome maps a failed run to the HTTP status that best describes
// whose fault it was.
func statusForOutcome(out service.UpdateOutcome) int {
	if out.Success {
		return http.StatusOK
	}
	switch out.Error {
	case feed.KindMissingCredential:
		return http.StatusConflict
	case feed.KindStorage:
		return http.StatusInternalServerError
	case feed.KindNoValidData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
