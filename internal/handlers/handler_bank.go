package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

// bankHandler handles HTTP requests for bank statement import and reconciliation.
type bankHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// registerBankRoutes registers routes related to bank reconciliation.
func registerBankRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := &bankHandler{reconciliationService: reconciliationService}

	bank := rg.Group("/bank-transactions")
	{
		bank.GET("", h.listBankTransactions)
		bank.POST("/import", h.importStatement)
		bank.POST("/auto-match", h.autoMatch)
		bank.POST("/:bankTransactionID/match", h.match)
		bank.POST("/:bankTransactionID/manual-match", h.manualMatch)
		bank.POST("/:bankTransactionID/unmatch", h.unmatch)
	}
}

// importStatement godoc
// @Summary Import a bank statement
// @Description Parses an uploaded CSV statement and stores its rows as unreconciled bank transactions for the given account
// @Tags reconciliation
// @Accept  multipart/form-data
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   accountID formData string true "Bank account ID"
// @Param   file formData file true "CSV statement file"
// @Success 201 {object} dto.ImportStatementResponse
// @Failure 400 {object} map[string]string "Unparseable statement or unknown account"
// @Router /companies/{companyID}/bank-transactions/import [post]
func (h *bankHandler) importStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID := c.PostForm("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountID form field is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Missing statement file on import", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "file form field is required"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	resp, err := h.reconciliationService.ImportStatement(c.Request.Context(), c.Param("companyID"), accountID, file, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Bank statement imported",
		slog.String("account_id", accountID),
		slog.Int("imported", resp.Imported))
	c.JSON(http.StatusCreated, resp)
}

// listBankTransactions godoc
// @Summary List imported bank transactions
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   accountID query string false "Filter by bank account"
// @Param   unreconciledOnly query bool false "Only lines not yet reconciled"
// @Success 200 {array} domain.BankTransaction
// @Router /companies/{companyID}/bank-transactions [get]
func (h *bankHandler) listBankTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListBankTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	lines, err := h.reconciliationService.ListBankTransactions(c.Request.Context(), c.Param("companyID"), params)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// match godoc
// @Summary Attempt to match one bank line
// @Description Auto-matches when exactly one amount-equal ledger candidate exists in the date window. Zero candidates reports UNMATCHED, several report AMBIGUOUS for manual resolution.
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   bankTransactionID path string true "Bank transaction ID"
// @Success 200 {object} domain.MatchResult
// @Failure 409 {object} map[string]string "Bank line already reconciled"
// @Router /companies/{companyID}/bank-transactions/{bankTransactionID}/match [post]
func (h *bankHandler) match(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	result, err := h.reconciliationService.Match(c.Request.Context(), c.Param("companyID"), c.Param("bankTransactionID"))
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// autoMatch godoc
// @Summary Auto-match all unreconciled lines of an account
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   accountID query string true "Bank account ID"
// @Param   window body dto.AutoMatchRequest false "Optional date window"
// @Success 200 {array} domain.MatchResult
// @Router /companies/{companyID}/bank-transactions/auto-match [post]
func (h *bankHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID := c.Query("accountID")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountID query parameter is required"})
		return
	}

	var req dto.AutoMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	results, err := h.reconciliationService.AutoMatch(c.Request.Context(), c.Param("companyID"), accountID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Auto-match run completed",
		slog.String("account_id", accountID),
		slog.Int("lines", len(results)))
	c.JSON(http.StatusOK, results)
}

// manualMatchRequest names the ledger transaction to pair with a bank line.
type manualMatchRequest struct {
	TransactionID string `json:"transactionID" binding:"required"`
}

// manualMatch godoc
// @Summary Manually match a bank line
// @Description Pairs a bank line with a chosen ledger transaction. Amounts need not agree, but the transaction must touch the bank account and be neither void nor already reconciled.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   bankTransactionID path string true "Bank transaction ID"
// @Param   match body manualMatchRequest true "Transaction to pair"
// @Success 204 "Matched"
// @Failure 400 {object} map[string]string "Transaction does not touch the bank account"
// @Failure 409 {object} map[string]string "Either side already reconciled"
// @Router /companies/{companyID}/bank-transactions/{bankTransactionID}/manual-match [post]
func (h *bankHandler) manualMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req manualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	err := h.reconciliationService.ManualMatch(c.Request.Context(), c.Param("companyID"), c.Param("bankTransactionID"), req.TransactionID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// unmatch godoc
// @Summary Undo a reconciliation match
// @Description Clears the linkage on both the bank line and the ledger transaction without altering the ledger
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   bankTransactionID path string true "Bank transaction ID"
// @Success 204 "Unmatched"
// @Failure 409 {object} map[string]string "Bank line is not reconciled"
// @Router /companies/{companyID}/bank-transactions/{bankTransactionID}/unmatch [post]
func (h *bankHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.reconciliationService.Unmatch(c.Request.Context(), c.Param("companyID"), c.Param("bankTransactionID")); err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
