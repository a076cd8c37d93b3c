package handler

import (
	"errors"
	"net/http"

	"fuelsurcharge/internal/apierror"
	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	svc service.SettingsService
}

func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Update godoc
// @Summary Update settings (partial)
// @Tags settings
// @Accept json
// @Produce json
// @Param body body dto.UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} dto.SettingsResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.svc.Update(c.Request.Context(), req)
	if errors.Is(err, service.ErrInvalidSettings) {
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(err.Error(), "invalid_settings"))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
