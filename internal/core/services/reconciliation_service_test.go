package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/core/services"
	"github.com/quillbooks/quillbooks/internal/dto"
)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockBankRepo   *MockBankRepository
	mockTxnRepo    *MockTransactionRepository
	mockAccountSvc *MockAccountReaderSvc
	service        portssvc.ReconciliationSvcFacade
	companyID      string
	userID         string
	bankAccountID  string
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockBankRepo = new(MockBankRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockAccountSvc = new(MockAccountReaderSvc)
	suite.service = services.NewReconciliationService(suite.mockBankRepo, suite.mockTxnRepo, suite.mockAccountSvc, 7)

	suite.companyID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.bankAccountID = uuid.NewString()
}

func (suite *ReconciliationServiceTestSuite) bankLine(amount decimal.Decimal) *domain.BankTransaction {
	return &domain.BankTransaction{
		BankTransactionID: uuid.NewString(),
		CompanyID:         suite.companyID,
		AccountID:         suite.bankAccountID,
		Date:              time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description:       "Customer deposit",
		Amount:            amount,
	}
}

func (suite *ReconciliationServiceTestSuite) candidate(effect decimal.Decimal) domain.MatchCandidate {
	return domain.MatchCandidate{
		TransactionID: uuid.NewString(),
		Date:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Now().UTC(),
		Effect:        effect,
	}
}

func (suite *ReconciliationServiceTestSuite) TestMatch_SingleCandidateMatches() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	candidate := suite.candidate(decimal.NewFromInt(100))

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindMatchCandidates", ctx, suite.companyID, suite.bankAccountID,
		bankTxn.Date.Add(-7*24*time.Hour), bankTxn.Date.Add(7*24*time.Hour)).
		Return([]domain.MatchCandidate{candidate}, nil).Once()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, candidate.TransactionID, bankTxn.BankTransactionID).
		Return(nil).Once()
	suite.mockBankRepo.On("SetBankTransactionMatched", ctx, bankTxn.BankTransactionID, candidate.TransactionID).
		Return(nil).Once()

	result, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchMatched, result.Status)
	suite.Require().NotNil(result.MatchedTransactionID)
	suite.Equal(candidate.TransactionID, *result.MatchedTransactionID)
	suite.Equal(1, result.CandidateCount)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestMatch_AmountFilterLeavesNoCandidate() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindMatchCandidates", ctx, suite.companyID, suite.bankAccountID,
		mock.Anything, mock.Anything).
		Return([]domain.MatchCandidate{suite.candidate(decimal.NewFromInt(99))}, nil).Once()

	result, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchUnmatched, result.Status)
	suite.Nil(result.MatchedTransactionID)
	suite.Equal(0, result.CandidateCount)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SetTransactionReconciled", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatch_MultipleCandidatesAreAmbiguous() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	farCandidate := suite.candidate(decimal.NewFromInt(100))
	farCandidate.Date = bankTxn.Date.Add(5 * 24 * time.Hour)
	nearCandidate := suite.candidate(decimal.NewFromInt(100))
	nearCandidate.Date = bankTxn.Date.Add(24 * time.Hour)

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindMatchCandidates", ctx, suite.companyID, suite.bankAccountID,
		mock.Anything, mock.Anything).
		Return([]domain.MatchCandidate{farCandidate, nearCandidate}, nil).Once()

	result, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchAmbiguous, result.Status)
	suite.Nil(result.MatchedTransactionID)
	suite.Equal(2, result.CandidateCount)
	// Candidates come back closest date first for manual resolution.
	suite.Require().Len(result.Candidates, 2)
	suite.Equal(nearCandidate.TransactionID, result.Candidates[0].TransactionID)
	suite.Equal(farCandidate.TransactionID, result.Candidates[1].TransactionID)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SetTransactionReconciled", mock.Anything, mock.Anything, mock.Anything)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "SetBankTransactionMatched", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatch_AlreadyReconciledLineIsRejected() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	bankTxn.IsReconciled = true

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()

	_, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyReconciled)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "FindMatchCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestMatch_WrongCompanyIsNotFound() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	bankTxn.CompanyID = uuid.NewString()

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()

	_, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestMatch_RollsBackLedgerSideOnBankUpdateFailure() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	candidate := suite.candidate(decimal.NewFromInt(100))
	bankErr := errors.New("bank line vanished")

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindMatchCandidates", ctx, suite.companyID, suite.bankAccountID,
		mock.Anything, mock.Anything).
		Return([]domain.MatchCandidate{candidate}, nil).Once()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, candidate.TransactionID, bankTxn.BankTransactionID).
		Return(nil).Once()
	suite.mockBankRepo.On("SetBankTransactionMatched", ctx, bankTxn.BankTransactionID, candidate.TransactionID).
		Return(bankErr).Once()
	suite.mockTxnRepo.On("ClearTransactionReconciled", ctx, candidate.TransactionID).Return(nil).Once()

	_, err := suite.service.Match(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, bankErr)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_SkipsConcurrentlyReconciledLines() {
	ctx := context.Background()
	matched := suite.bankLine(decimal.NewFromInt(50))
	contested := suite.bankLine(decimal.NewFromInt(50))
	candidate := suite.candidate(decimal.NewFromInt(50))

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.companyID, suite.bankAccountID).
		Return(&domain.Account{AccountID: suite.bankAccountID, CompanyID: suite.companyID, IsActive: true}, nil).Once()
	suite.mockBankRepo.On("ListBankTransactions", ctx, suite.companyID, &suite.bankAccountID, true).
		Return([]domain.BankTransaction{*matched, *contested}, nil).Once()
	suite.mockTxnRepo.On("FindMatchCandidates", ctx, suite.companyID, suite.bankAccountID,
		mock.Anything, mock.Anything).
		Return([]domain.MatchCandidate{candidate}, nil).Twice()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, candidate.TransactionID, matched.BankTransactionID).
		Return(nil).Once()
	suite.mockBankRepo.On("SetBankTransactionMatched", ctx, matched.BankTransactionID, candidate.TransactionID).
		Return(nil).Once()
	// Second line loses the conditional update to a concurrent run.
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, candidate.TransactionID, contested.BankTransactionID).
		Return(apperrors.ErrConflict).Once()

	results, err := suite.service.AutoMatch(ctx, suite.companyID, suite.bankAccountID, dto.AutoMatchRequest{})

	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal(matched.BankTransactionID, results[0].BankTransactionID)
	suite.Equal(domain.MatchMatched, results[0].Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_Success() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		CompanyID:     suite.companyID,
		Lines: []domain.Line{
			{AccountID: suite.bankAccountID, Amount: decimal.NewFromInt(40), Side: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(40), Side: domain.Credit},
		},
	}

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, txn.TransactionID, bankTxn.BankTransactionID).
		Return(nil).Once()
	suite.mockBankRepo.On("SetBankTransactionMatched", ctx, bankTxn.BankTransactionID, txn.TransactionID).
		Return(nil).Once()

	err := suite.service.ManualMatch(ctx, suite.companyID, bankTxn.BankTransactionID, txn.TransactionID)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_BypassesAmountRule() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(100))
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		CompanyID:     suite.companyID,
		Lines: []domain.Line{
			{AccountID: suite.bankAccountID, Amount: decimal.NewFromInt(60), Side: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(60), Side: domain.Credit},
		},
	}

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, txn.TransactionID, bankTxn.BankTransactionID).
		Return(nil).Once()
	suite.mockBankRepo.On("SetBankTransactionMatched", ctx, bankTxn.BankTransactionID, txn.TransactionID).
		Return(nil).Once()

	err := suite.service.ManualMatch(ctx, suite.companyID, bankTxn.BankTransactionID, txn.TransactionID)

	suite.Require().NoError(err)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_RejectsAccountMismatch() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		CompanyID:     suite.companyID,
		Lines: []domain.Line{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(40), Side: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(40), Side: domain.Credit},
		},
	}

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	err := suite.service.ManualMatch(ctx, suite.companyID, bankTxn.BankTransactionID, txn.TransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountMismatch)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SetTransactionReconciled", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_RejectsVoidTransaction() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		CompanyID:     suite.companyID,
		IsVoid:        true,
		Lines: []domain.Line{
			{AccountID: suite.bankAccountID, Amount: decimal.NewFromInt(40), Side: domain.Debit},
		},
	}

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	err := suite.service.ManualMatch(ctx, suite.companyID, bankTxn.BankTransactionID, txn.TransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestUnmatch_Success() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))
	matchedID := uuid.NewString()
	bankTxn.IsReconciled = true
	bankTxn.MatchedTxnID = &matchedID

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("ClearTransactionReconciled", ctx, matchedID).Return(nil).Once()
	suite.mockBankRepo.On("ClearBankTransactionMatched", ctx, bankTxn.BankTransactionID).Return(nil).Once()

	err := suite.service.Unmatch(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestUnmatch_RestoresLedgerSideOnBankClearFailure() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))
	matchedID := uuid.NewString()
	bankTxn.IsReconciled = true
	bankTxn.MatchedTxnID = &matchedID
	bankErr := errors.New("bank line update failed")

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()
	suite.mockTxnRepo.On("ClearTransactionReconciled", ctx, matchedID).Return(nil).Once()
	suite.mockBankRepo.On("ClearBankTransactionMatched", ctx, bankTxn.BankTransactionID).Return(bankErr).Once()
	suite.mockTxnRepo.On("SetTransactionReconciled", ctx, matchedID, bankTxn.BankTransactionID).Return(nil).Once()

	err := suite.service.Unmatch(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, bankErr)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestUnmatch_RejectsUnreconciledLine() {
	ctx := context.Background()
	bankTxn := suite.bankLine(decimal.NewFromInt(40))

	suite.mockBankRepo.On("FindBankTransactionByID", ctx, bankTxn.BankTransactionID).Return(bankTxn, nil).Once()

	err := suite.service.Unmatch(ctx, suite.companyID, bankTxn.BankTransactionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ClearTransactionReconciled", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestImportStatement_SavesParsedRows() {
	ctx := context.Background()
	statement := strings.Join([]string{
		"Date,Description,Amount,Reference",
		"2025-03-10,Customer deposit,\"1,250.00\",INV-42",
		"2025-03-11,Bank fee,-15.50,",
	}, "\n")

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.companyID, suite.bankAccountID).
		Return(&domain.Account{AccountID: suite.bankAccountID, CompanyID: suite.companyID, IsActive: true}, nil).Once()
	suite.mockBankRepo.On("SaveBankTransactions", ctx, mock.Anything).Return(nil).Once().
		Run(func(args mock.Arguments) {
			lines := args.Get(1).([]domain.BankTransaction)
			suite.Require().Len(lines, 2)
			suite.Equal(suite.companyID, lines[0].CompanyID)
			suite.Equal(suite.bankAccountID, lines[0].AccountID)
			suite.Equal("Customer deposit", lines[0].Description)
			suite.True(lines[0].Amount.Equal(decimal.RequireFromString("1250.00")), "got %s", lines[0].Amount)
			suite.Equal("INV-42", lines[0].Reference)
			suite.True(lines[1].Amount.IsNegative())
			suite.Equal(suite.userID, lines[0].CreatedBy)
		})

	resp, err := suite.service.ImportStatement(ctx, suite.companyID, suite.bankAccountID, strings.NewReader(statement), suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, resp.Imported)
	suite.Len(resp.BankTransactions, 2)
	suite.mockBankRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestImportStatement_RejectsInactiveAccount() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.companyID, suite.bankAccountID).
		Return(&domain.Account{AccountID: suite.bankAccountID, CompanyID: suite.companyID, IsActive: false}, nil).Once()

	_, err := suite.service.ImportStatement(ctx, suite.companyID, suite.bankAccountID, strings.NewReader("Date,Description,Amount\n"), suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "SaveBankTransactions", mock.Anything, mock.Anything)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
