package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

// transactionHandler handles HTTP requests for ledger postings.
type transactionHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerTransactionRoutes registers routes related to ledger transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &transactionHandler{ledgerService: ledgerService}

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.postTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.POST("/:transactionID/void", h.voidTransaction)
	}

	// Per-account posting history lives under the account resource.
	rg.GET("/accounts/:accountID/lines", h.listLinesByAccount)
}

// postTransaction godoc
// @Summary Post a balanced transaction
// @Description Validates and atomically appends a double-entry transaction. Repeating a request with the same idempotency key replays the original result.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   transaction body dto.CreateTransactionRequest true "Transaction draft"
// @Success 201 {object} domain.Transaction
// @Failure 400 {object} map[string]string "Unbalanced or otherwise invalid draft"
// @Failure 409 {object} map[string]string "Posting date falls in a locked period"
// @Failure 503 {object} map[string]string "Transient storage failure, retry"
// @Router /companies/{companyID}/transactions [post]
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.ledgerService.PostTransaction(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("transaction_number", txn.TransactionNumber))
	c.JSON(http.StatusCreated, txn)
}

// voidTransaction godoc
// @Summary Void a transaction
// @Description Creates a mirror-image reversal and marks the original void. Nothing is ever deleted.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   transactionID path string true "Transaction ID"
// @Param   void body dto.VoidTransactionRequest true "Reason and optional reversal date"
// @Success 201 {object} domain.Transaction "The reversing transaction"
// @Failure 409 {object} map[string]string "Already void, or reversal date in a locked period"
// @Router /companies/{companyID}/transactions/{transactionID}/void [post]
func (h *transactionHandler) voidTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.VoidTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for VoidTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, err := h.ledgerService.VoidTransaction(c.Request.Context(), c.Param("companyID"), c.Param("transactionID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Transaction voided", slog.String("reversal_id", reversal.TransactionID))
	c.JSON(http.StatusCreated, reversal)
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /companies/{companyID}/transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	txn, err := h.ledgerService.GetTransactionByID(c.Request.Context(), c.Param("companyID"), c.Param("transactionID"))
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// listTransactions godoc
// @Summary List transactions
// @Description Token-paginated list, newest first. Voided transactions and reversals are hidden unless includeVoided is set.
// @Tags transactions
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Param   includeVoided query bool false "Include voided transactions and reversals"
// @Success 200 {object} dto.ListTransactionsResponse
// @Router /companies/{companyID}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), c.Param("companyID"), params)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listLinesByAccount godoc
// @Summary List the posting lines of an account
// @Description Token-paginated posting history with running balances, newest first
// @Tags transactions
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListLinesResponse
// @Router /companies/{companyID}/accounts/{accountID}/lines [get]
func (h *transactionHandler) listLinesByAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListLinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListLinesByAccount(c.Request.Context(), c.Param("companyID"), c.Param("accountID"), params)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
