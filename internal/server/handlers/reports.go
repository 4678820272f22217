package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/service/reporting"
)

// ReportHandler serves the profit reports and stored daily snapshots.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportHandler constructs the report handler.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Summary totals sales against supply costs, optionally for ?henBatchId=.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), actor(c), c.Query("henBatchId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, summary)
}

// MonthlyProfit reads ?year= and ?month=.
func (h *ReportHandler) MonthlyProfit(c *gin.Context) {
	year, valid := queryInt(c, "year", 0)
	if !valid {
		return
	}
	month, valid := queryInt(c, "month", 0)
	if !valid {
		return
	}
	profit, err := h.svc.MonthlyProfit(c.Request.Context(), actor(c), year, month)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profit)
}

// Daily lists the stored daily snapshots between ?from= and ?to=.
func (h *ReportHandler) Daily(c *gin.Context) {
	from, valid := queryDay(c, "from")
	if !valid {
		return
	}
	to, valid := queryDay(c, "to")
	if !valid {
		return
	}
	list, err := h.svc.DailyReports(c.Request.Context(), actor(c), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}
