package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/dto"
	"github.com/quillbooks/quillbooks/internal/middleware"
)

// invoiceHandler handles HTTP requests related to invoices.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

// registerInvoiceRoutes registers routes related to the invoice lifecycle.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := &invoiceHandler{invoiceService: invoiceService}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("", h.listInvoices)
		invoices.GET("/:invoiceID", h.getInvoice)
		invoices.PUT("/:invoiceID", h.updateInvoice)
		invoices.POST("/:invoiceID/transition", h.transitionInvoice)
	}

	rg.PUT("/settings/posting-accounts", h.setPostingAccounts)
}

// createInvoice godoc
// @Summary Create a draft invoice
// @Description Creates an invoice in DRAFT status with server-computed totals
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice draft"
// @Success 201 {object} domain.Invoice
// @Failure 400 {object} map[string]string "Invalid lines or amounts"
// @Failure 409 {object} map[string]string "Invoice number already in use"
// @Router /companies/{companyID}/invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.invoiceService.CreateInvoice(c.Request.Context(), c.Param("companyID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Invoice created", slog.String("invoice_id", inv.InvoiceID), slog.String("number", inv.Number))
	c.JSON(http.StatusCreated, inv)
}

// getInvoice godoc
// @Summary Get an invoice by ID
// @Description Returns the invoice with its effective status, which reports OVERDUE for unpaid invoices past their due date.
// @Tags invoices
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Router /companies/{companyID}/invoices/{invoiceID} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	resp, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), c.Param("companyID"), c.Param("invoiceID"))
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listInvoices godoc
// @Summary List invoices
// @Tags invoices
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListInvoicesResponse
// @Router /companies/{companyID}/invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListInvoicesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), c.Param("companyID"), params)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// updateInvoice godoc
// @Summary Update a draft invoice
// @Description Replaces mutable fields of a DRAFT invoice and recomputes totals. Finalized invoices are immutable except for status.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   invoiceID path string true "Invoice ID"
// @Param   invoice body dto.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} domain.Invoice
// @Failure 409 {object} map[string]string "Invoice is no longer a draft"
// @Router /companies/{companyID}/invoices/{invoiceID} [put]
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.invoiceService.UpdateInvoice(c.Request.Context(), c.Param("companyID"), c.Param("invoiceID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// transitionInvoice godoc
// @Summary Transition an invoice
// @Description Applies a lifecycle transition. Finalize (DRAFT to SENT) and payment (to PAID) post to the ledger; retried calls with the same idempotency key replay the original result.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   invoiceID path string true "Invoice ID"
// @Param   transition body dto.TransitionInvoiceRequest true "Target status and idempotency key"
// @Success 200 {object} domain.Invoice
// @Failure 409 {object} map[string]string "Transition not allowed from current status"
// @Failure 422 {object} map[string]string "Posting accounts not configured"
// @Router /companies/{companyID}/invoices/{invoiceID}/transition [post]
func (h *invoiceHandler) transitionInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TransitionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for TransitionInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inv, err := h.invoiceService.TransitionInvoice(c.Request.Context(), c.Param("companyID"), c.Param("invoiceID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Invoice transitioned",
		slog.String("invoice_id", inv.InvoiceID),
		slog.String("status", string(inv.Status)))
	c.JSON(http.StatusOK, inv)
}

// setPostingAccounts godoc
// @Summary Configure invoice posting accounts
// @Description Sets the per-company receivable, revenue, tax payable and cash accounts used by invoice postings
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   accounts body dto.PostingAccountsRequest true "Posting account IDs"
// @Success 200 {object} domain.PostingAccounts
// @Failure 400 {object} map[string]string "An account does not exist or is inactive"
// @Router /companies/{companyID}/settings/posting-accounts [put]
func (h *invoiceHandler) setPostingAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostingAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetPostingAccounts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	accounts, err := h.invoiceService.SetPostingAccounts(c.Request.Context(), c.Param("companyID"), req, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}
