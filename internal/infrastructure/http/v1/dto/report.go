package dto

import (
	"time"

	"stockyard/internal/core/types"
	"stockyard/internal/domain/report"
)

// ReportItemResponse is one product line of a daily report.
type ReportItemResponse struct {
	LineID    string `json:"lineId"`
	ProductID string `json:"productId"`
	Opening   int64  `json:"opening"`
	Received  int64  `json:"received"`
	Sold      int64  `json:"sold"`
	Damages   int64  `json:"damages"`
	Closing   int64  `json:"closing"`
}

// DailyReportResponse is the API shape of a daily report.
type DailyReportResponse struct {
	DocumentResponse
	UnitID        string               `json:"unitId"`
	TotalOpening  int64                `json:"totalOpening"`
	TotalReceived int64                `json:"totalReceived"`
	TotalSold     int64                `json:"totalSold"`
	TotalDamages  int64                `json:"totalDamages"`
	TotalClosing  int64                `json:"totalClosing"`
	TotalSales    types.Money          `json:"totalSalesAmount"`
	Remark        string               `json:"remark,omitempty"`
	Items         []ReportItemResponse `json:"items,omitempty"`
}

// FromDailyReport maps a daily report to its API shape.
func FromDailyReport(r *report.DailyReport) DailyReportResponse {
	resp := DailyReportResponse{
		DocumentResponse: FromDocument(r.Document),
		UnitID:           r.UnitID.String(),
		TotalOpening:     r.TotalOpening,
		TotalReceived:    r.TotalReceived,
		TotalSold:        r.TotalSold,
		TotalDamages:     r.TotalDamages,
		TotalClosing:     r.TotalClosing,
		TotalSales:       r.TotalSalesAmount,
		Remark:           r.Remark,
	}
	if len(r.Items) > 0 {
		resp.Items = make([]ReportItemResponse, len(r.Items))
		for i, item := range r.Items {
			resp.Items[i] = ReportItemResponse{
				LineID:    item.LineID.String(),
				ProductID: item.ProductID.String(),
				Opening:   item.Opening,
				Received:  item.Received,
				Sold:      item.Sold,
				Damages:   item.Damages,
				Closing:   item.Closing,
			}
		}
	}
	return resp
}

// FromDailyReports maps headers only, items omitted.
func FromDailyReports(list []*report.DailyReport) []DailyReportResponse {
	out := make([]DailyReportResponse, len(list))
	for i, r := range list {
		out[i] = FromDailyReport(r)
	}
	return out
}

// GenerateReportRequest closes a trading day for a unit. Damages maps
// product id to damaged item count for that day.
type GenerateReportRequest struct {
	UnitID  string           `json:"unitId" binding:"required"`
	Date    time.Time        `json:"date" binding:"required"`
	Damages map[string]int64 `json:"damages"`
	Remark  string           `json:"remark"`
}

// UpdateRemarkRequest changes the free-text remark of a stored report.
type UpdateRemarkRequest struct {
	Remark string `json:"remark" binding:"max=2000"`
}

// DiscrepancyResponse is one flagged report line from a diagnosis run.
type DiscrepancyResponse struct {
	UnitID          string    `json:"unitId"`
	ReportID        string    `json:"reportId"`
	Date            time.Time `json:"date"`
	ProductID       string    `json:"productId"`
	Reason          string    `json:"reason"`
	ExpectedClosing int64     `json:"expectedClosing"`
	ActualClosing   int64     `json:"actualClosing"`
}

// FromDiscrepancies maps diagnosis results.
func FromDiscrepancies(list []report.Discrepancy) []DiscrepancyResponse {
	out := make([]DiscrepancyResponse, len(list))
	for i, d := range list {
		out[i] = DiscrepancyResponse{
			UnitID:          d.UnitID.String(),
			ReportID:        d.ReportID.String(),
			Date:            d.Date,
			ProductID:       d.ProductID.String(),
			Reason:          d.Reason,
			ExpectedClosing: d.ExpectedClosing,
			ActualClosing:   d.ActualClosing,
		}
	}
	return out
}
