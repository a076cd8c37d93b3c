package handler

import (
	"net/http"
	"time"

	"fuelsurcharge/internal/apierror"
	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/model"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/settings"
	"fuelsurcharge/internal/surcharge"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PricesHandler serves the read-only price endpoints. No authentication
// required.
type PricesHandler struct {
	repo     repository.PriceRecordRepository
	settings settings.Provider
}

func NewPricesHandler(repo repository.PriceRecordRepository, provider settings.Provider) *PricesHandler {
	return &PricesHandler{repo: repo, settings: provider}
}

// Latest godoc
// @Summary Most recent diesel price and surcharge
// @Tags prices
// @Produce json
// @Param region query string false "Region tag (default national)"
// @Success 200 {object} dto.PriceItem
// @Failure 404 {object} apierror.APIError
// @Router /v1/prices/latest [get]
func (h *PricesHandler) Latest(c *gin.Context) {
	region := c.DefaultQuery("region", feed.NationalRegion)
	rec, err := h.repo.Latest(c.Request.Context(), region)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, apierror.New("No price data available yet"))
		return
	}
	c.JSON(http.StatusOK, priceToItem(rec))
}

// List godoc
// @Summary Historical prices, newest first
// @Tags prices
// @Produce json
// @Success 200 {object} dto.PriceListResponse
// @Router /v1/prices [get]
func (h *PricesHandler) List(c *gin.Context) {
	var f dto.PriceFilter
	if !bindQuery(c, &f) {
		return
	}

	rows, total, err := h.repo.List(c.Request.Context(), repository.PriceFilter{
		Region: f.Region,
		From:   parseDate(f.From),
		To:     parseDate(f.To),
		Page:   f.Page,
		Limit:  f.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := make([]dto.PriceItem, 0, len(rows))
	for i := range rows {
		items = append(items, priceToItem(&rows[i]))
	}
	c.JSON(http.StatusOK, dto.PriceListResponse{Data: items, Total: total, Page: f.Page, Limit: f.Limit})
}

func (h *PricesHandler) Regions(c *gin.Context) {
	regions, err := h.repo.Regions(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if regions == nil {
		regions = []string{}
	}
	c.JSON(http.StatusOK, dto.RegionsResponse{Regions: regions})
}

// Formula renders the active surcharge formula.
func (h *PricesHandler) Formula(c *gin.Context) {
	snap, err := h.settings.Current(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("prices: failed to load settings")
		_ = c.Error(err)
		return
	}
	calc := snap.Calculation
	c.JSON(http.StatusOK, dto.FormulaResponse{
		BaseThreshold:   calc.BaseThreshold,
		IncrementAmount: calc.IncrementAmount,
		PercentageRate:  calc.PercentageRate,
		Description:     surcharge.FormulaDescription(calc),
	})
}

func priceToItem(r *model.PriceRecord) dto.PriceItem {
	return dto.PriceItem{
		ID:            r.ID.String(),
		Date:          r.Date.Format(dateLayout),
		Region:        r.Region,
		Price:         r.Price,
		SurchargeRate: r.SurchargeRate,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
