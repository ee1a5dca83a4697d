package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/report"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// ReportHandler serves daily report generation, retrieval and the
// reconciliation diagnosis.
type ReportHandler struct {
	*BaseHandler
	engine *report.Engine
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, engine *report.Engine) *ReportHandler {
	return &ReportHandler{BaseHandler: base, engine: engine}
}

// Generate handles POST /reports
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	unitID, err := id.Parse(req.UnitID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unitId"))
		return
	}

	damages := make(map[id.ID]int64, len(req.Damages))
	for productStr, qty := range req.Damages {
		productID, err := id.Parse(productStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id in damages").WithDetail("productId", productStr))
			return
		}
		if qty < 0 {
			h.Error(c, apperror.NewValidation("damages must be non-negative").WithDetail("productId", productStr))
			return
		}
		damages[productID] = qty
	}

	rep, err := h.engine.Generate(c.Request.Context(), report.GenerateParams{
		UnitID:  unitID,
		Date:    req.Date,
		ActorID: h.GetActorID(c),
		Damages: damages,
		Remark:  req.Remark,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromDailyReport(rep)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	reportID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rep, err := h.engine.GetByID(c.Request.Context(), reportID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDailyReport(rep))
}

// GetByUnitAndDate handles GET /units/:id/reports/:date
func (h *ReportHandler) GetByUnitAndDate(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date, YYYY-MM-DD expected"))
		return
	}

	rep, err := h.engine.GetByUnitAndDate(c.Request.Context(), unitID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDailyReport(rep))
}

// List handles GET /units/:id/reports
func (h *ReportHandler) List(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	list, err := h.engine.List(c.Request.Context(), unitID, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDailyReports(list))
}

// UpdateRemark handles PUT /reports/:id/remark
func (h *ReportHandler) UpdateRemark(c *gin.Context) {
	reportID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRemarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.engine.UpdateRemark(c.Request.Context(), reportID, req.Remark); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "remark updated")
}

// Diagnose handles GET /reports/diagnose
func (h *ReportHandler) Diagnose(c *gin.Context) {
	var unitID *id.ID
	if unitStr := c.Query("unitId"); unitStr != "" {
		parsed, err := id.Parse(unitStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unitId"))
			return
		}
		unitID = &parsed
	}

	discrepancies, err := h.engine.Diagnose(c.Request.Context(), unitID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDiscrepancies(discrepancies))
}
