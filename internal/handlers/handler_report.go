package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

// reportHandler handles HTTP requests for ledger exports.
type reportHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// registerReportRoutes registers routes related to reporting.
func registerReportRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := &reportHandler{reportingService: reportingService}

	rg.GET("/reports/ledger", h.exportLedger)
}

// exportLedger godoc
// @Summary Export the ledger
// @Description Streams every posted transaction of the date range as CSV (one row per line, with running balances) or JSON
// @Tags reports
// @Produce  json
// @Produce  text/csv
// @Param   companyID path string true "Company ID"
// @Param   from query string true "Range start (RFC3339)"
// @Param   to query string true "Range end (RFC3339)"
// @Param   format query string false "csv or json" default(json)
// @Success 200 {string} string "Exported ledger"
// @Failure 400 {object} map[string]string "Invalid range or format"
// @Router /companies/{companyID}/reports/ledger [get]
func (h *reportHandler) exportLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339: " + err.Error()})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339: " + err.Error()})
		return
	}

	format := dto.ReportFormat(c.DefaultQuery("format", string(dto.FormatJSON)))
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}
	params := dto.ExportLedgerParams{From: from, To: to, Format: format}

	switch format {
	case dto.FormatCSV:
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger_%s_%s.csv",
			from.Format("2006-01-02"), to.Format("2006-01-02")))
	case dto.FormatJSON:
		c.Header("Content-Type", "application/json")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
		return
	}

	c.Status(http.StatusOK)
	if err := h.reportingService.ExportLedger(c.Request.Context(), c.Param("companyID"), params, c.Writer); err != nil {
		// Headers may already be on the wire; log and abort the stream.
		logger.Error("Ledger export failed mid-stream", "error", err)
		c.Abort()
	}
}
