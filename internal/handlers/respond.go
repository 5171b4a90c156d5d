package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/core/services"
)

// respondWithError translates service errors to HTTP responses in one place,
// so every handler maps the shared error taxonomy the same way.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, services.ErrUnbalancedEntry),
		errors.Is(err, services.ErrMinLines),
		errors.Is(err, services.ErrMinAccounts),
		errors.Is(err, services.ErrInvalidParent),
		errors.Is(err, services.ErrEmptyReason),
		errors.Is(err, services.ErrAccountMismatch),
		errors.Is(err, services.ErrPostingAccountsUnset):
		logger.Warn("Request rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, services.ErrDuplicateCode),
		errors.Is(err, services.ErrDuplicateInvoiceNumber),
		errors.Is(err, services.ErrPeriodOverlap),
		errors.Is(err, services.ErrPeriodLocked),
		errors.Is(err, services.ErrAlreadyVoid),
		errors.Is(err, services.ErrVoidOfReversal),
		errors.Is(err, services.ErrAlreadyReconciled),
		errors.Is(err, services.ErrInvoiceNotDraft):
		logger.Warn("Request conflicts with current state", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrTransient):
		logger.Warn("Transient storage failure", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary failure, please retry"})

	case errors.As(err, &appErr):
		logger.Error("Application error", slog.String("error", err.Error()))
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})

	default:
		logger.Error("Unhandled service error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
