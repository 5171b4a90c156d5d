package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

// periodHandler handles HTTP requests for accounting period locks.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

// registerPeriodRoutes registers routes related to accounting periods.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := &periodHandler{periodService: periodService}

	periods := rg.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/locked", h.isDateLocked)
		periods.POST("/:periodID/lock", h.lockPeriod)
		periods.POST("/:periodID/unlock", h.unlockPeriod)
	}
}

// createPeriod godoc
// @Summary Create an accounting period
// @Description Creates an unlocked period. Periods of one company must not overlap.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   period body dto.CreatePeriodRequest true "Period definition"
// @Success 201 {object} domain.AccountingPeriod
// @Failure 409 {object} map[string]string "Range overlaps an existing period"
// @Router /companies/{companyID}/periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), c.Param("companyID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, period)
}

// listPeriods godoc
// @Summary List accounting periods
// @Tags periods
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Success 200 {array} domain.AccountingPeriod
// @Router /companies/{companyID}/periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	periods, err := h.periodService.ListPeriods(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, periods)
}

// lockPeriod godoc
// @Summary Lock a period
// @Description Closes the period so no postings dated inside it are accepted. The reason is recorded with the actor.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   periodID path string true "Period ID"
// @Param   lock body dto.PeriodLockRequest true "Reason for locking"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 409 {object} map[string]string "Period is already locked"
// @Router /companies/{companyID}/periods/{periodID}/lock [post]
func (h *periodHandler) lockPeriod(c *gin.Context) {
	h.setLockState(c, true)
}

// unlockPeriod godoc
// @Summary Unlock a period
// @Description Reopens the period. The reason is recorded with the actor.
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   periodID path string true "Period ID"
// @Param   unlock body dto.PeriodLockRequest true "Reason for unlocking"
// @Success 200 {object} domain.AccountingPeriod
// @Failure 409 {object} map[string]string "Period is not locked"
// @Router /companies/{companyID}/periods/{periodID}/unlock [post]
func (h *periodHandler) unlockPeriod(c *gin.Context) {
	h.setLockState(c, false)
}

func (h *periodHandler) setLockState(c *gin.Context, lock bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PeriodLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var (
		period interface{}
		err    error
	)
	if lock {
		period, err = h.periodService.LockPeriod(c.Request.Context(), c.Param("companyID"), c.Param("periodID"), req.Reason, userID)
	} else {
		period, err = h.periodService.UnlockPeriod(c.Request.Context(), c.Param("companyID"), c.Param("periodID"), req.Reason, userID)
	}
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Period lock state changed",
		slog.String("period_id", c.Param("periodID")),
		slog.Bool("locked", lock))
	c.JSON(http.StatusOK, period)
}

// isDateLocked godoc
// @Summary Check whether a date is locked
// @Tags periods
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   date query string true "Date (RFC3339)"
// @Success 200 {object} map[string]bool
// @Router /companies/{companyID}/periods/locked [get]
func (h *periodHandler) isDateLocked(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	d, err := time.Parse(time.RFC3339, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC3339: " + err.Error()})
		return
	}

	locked, err := h.periodService.IsDateLocked(c.Request.Context(), c.Param("companyID"), d)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locked": locked})
}
