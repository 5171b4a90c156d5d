package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quillbooks/quillbooks/internal/apperrors"
	"github.com/quillbooks/quillbooks/internal/core/domain"
	portsrepo "github.com/quillbooks/quillbooks/internal/core/ports/repositories"
	portssvc "github.com/quillbooks/quillbooks/internal/core/ports/services"
	"github.com/quillbooks/quillbooks/internal/core/services"
	"github.com/quillbooks/quillbooks/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTxnRepo    *MockTransactionRepository
	mockIdemRepo   *MockIdempotencyRepository
	mockPeriodRepo *MockPeriodRepository
	mockAccountSvc *MockAccountReaderSvc
	service        portssvc.LedgerSvcFacade
	companyID      string
	userID         string
	cashAccount    domain.Account
	revenueAccount domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockIdemRepo = new(MockIdempotencyRepository)
	suite.mockPeriodRepo = new(MockPeriodRepository)
	suite.mockAccountSvc = new(MockAccountReaderSvc)
	suite.service = services.NewLedgerService(
		suite.mockTxnRepo, suite.mockIdemRepo, suite.mockPeriodRepo, suite.mockAccountSvc,
		services.LedgerConfig{PostRetryAttempts: 3, IdempotencyTTL: time.Hour},
	)

	suite.companyID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.cashAccount = domain.Account{
		AccountID:   uuid.NewString(),
		CompanyID:   suite.companyID,
		AccountType: domain.Asset,
		IsActive:    true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:   uuid.NewString(),
		CompanyID:   suite.companyID,
		AccountType: domain.Revenue,
		IsActive:    true,
	}
}

func (suite *LedgerServiceTestSuite) balancedRequest() dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Date:        time.Now().UTC(),
		Type:        domain.JournalEntry,
		Description: "Cash sale",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{AccountID: suite.revenueAccount.AccountID, Amount: decimal.NewFromInt(100), Side: domain.Credit},
		},
		IdempotencyKey: uuid.NewString(),
	}
}

func (suite *LedgerServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}
}

func (suite *LedgerServiceTestSuite) expectFreshKey(kind domain.OperationKind, key string) {
	suite.mockIdemRepo.On("FindRecord", mock.Anything, suite.companyID, kind, key).
		Return(nil, apperrors.ErrNotFound).Once()
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Success() {
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID,
		[]string{suite.cashAccount.AccountID, suite.revenueAccount.AccountID}).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, domain.DayStart(req.Date)).Return(false, nil).Once()

	suite.mockTxnRepo.On("SaveTransaction", ctx,
		mock.AnythingOfType("domain.Transaction"),
		mock.AnythingOfType("map[string]decimal.Decimal"),
		mock.AnythingOfType("*domain.IdempotencyRecord")).
		Run(func(args mock.Arguments) {
			txn := args.Get(1).(domain.Transaction)
			changes := args.Get(2).(map[string]decimal.Decimal)
			record := args.Get(3).(*domain.IdempotencyRecord)

			suite.True(txn.TotalAmount.Equal(decimal.NewFromInt(100)))
			suite.Len(txn.Lines, 2)
			// Debit 100 to an asset and credit 100 to revenue both raise the balance.
			suite.True(changes[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(100)))
			suite.True(changes[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(100)))
			suite.Equal(req.IdempotencyKey, record.Key)
			suite.Equal(txn.TransactionID, record.ResultID)
		}).
		Return(&domain.Transaction{TransactionID: uuid.NewString(), TransactionNumber: "TXN-000001", CompanyID: suite.companyID, TotalAmount: decimal.NewFromInt(100)}, nil).Once()

	saved, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(saved)
	suite.Equal("TXN-000001", saved.TransactionNumber)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockIdemRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Unbalanced() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines[1].Amount = decimal.NewFromInt(90)

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnbalancedEntry)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_MinLines() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines = req.Lines[:1]

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMinLines)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_SingleAccount() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines[1].AccountID = suite.cashAccount.AccountID

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMinAccounts)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_InactiveAccount() {
	ctx := context.Background()
	req := suite.balancedRequest()

	inactive := suite.revenueAccount
	inactive.IsActive = false
	accounts := suite.accountsMap()
	accounts[inactive.AccountID] = inactive

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(accounts, nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_PeriodLocked() {
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, domain.DayStart(req.Date)).Return(true, nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPeriodLocked)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_PeriodLockCoversEndOfDay() {
	ctx := context.Background()
	req := suite.balancedRequest()
	// Period bounds are midnight instants; a posting late on the end date must
	// still be treated as inside the locked period.
	req.Date = time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	lockedDay := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, lockedDay).Return(true, nil).Once()

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPeriodLocked)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_IdempotentReplay() {
	ctx := context.Background()
	req := suite.balancedRequest()
	priorID := uuid.NewString()

	suite.mockIdemRepo.On("FindRecord", ctx, suite.companyID, domain.OpPostTransaction, req.IdempotencyKey).
		Return(&domain.IdempotencyRecord{ResultID: priorID}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, priorID).
		Return(&domain.Transaction{TransactionID: priorID, CompanyID: suite.companyID}, nil).Once()

	saved, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(priorID, saved.TransactionID)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "GetAccountsByIDs", mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_LostClaimRaceReplaysWinner() {
	ctx := context.Background()
	req := suite.balancedRequest()
	winnerID := uuid.NewString()

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, domain.DayStart(req.Date)).Return(false, nil).Once()

	claimErr := &portsrepo.IdempotencyClaimError{
		Existing: domain.IdempotencyRecord{OperationKind: domain.OpPostTransaction, ResultID: winnerID},
	}
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, claimErr).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, winnerID).
		Return(&domain.Transaction{TransactionID: winnerID, CompanyID: suite.companyID}, nil).Once()

	saved, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(winnerID, saved.TransactionID)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_RetriesTransientFailures() {
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, domain.DayStart(req.Date)).Return(false, nil).Once()

	transient := fmt.Errorf("serialization failure: %w", apperrors.ErrTransient)
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, transient).Twice()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Transaction{TransactionID: uuid.NewString(), CompanyID: suite.companyID}, nil).Once()

	saved, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(saved)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_GivesUpAfterExhaustingRetries() {
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectFreshKey(domain.OpPostTransaction, req.IdempotencyKey)
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, domain.DayStart(req.Date)).Return(false, nil).Once()

	transient := fmt.Errorf("deadlock detected: %w", apperrors.ErrTransient)
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, transient).Times(3)

	_, err := suite.service.PostTransaction(ctx, suite.companyID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrTransient)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestVoidTransaction_Success() {
	ctx := context.Background()
	originalID := uuid.NewString()
	key := uuid.NewString()

	original := &domain.Transaction{
		TransactionID:     originalID,
		TransactionNumber: "TXN-000007",
		CompanyID:         suite.companyID,
		Type:              domain.JournalEntry,
		TotalAmount:       decimal.NewFromInt(100),
		Lines: []domain.Line{
			{LineID: uuid.NewString(), AccountID: suite.cashAccount.AccountID, Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{LineID: uuid.NewString(), AccountID: suite.revenueAccount.AccountID, Amount: decimal.NewFromInt(100), Side: domain.Credit},
		},
	}

	suite.expectFreshKey(domain.OpVoidTransaction, key)
	suite.mockTxnRepo.On("FindTransactionByID", ctx, originalID).Return(original, nil).Once()
	suite.mockPeriodRepo.On("IsDateLocked", ctx, suite.companyID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.companyID, mock.Anything).
		Return(suite.accountsMap(), nil).Once()

	suite.mockTxnRepo.On("SaveReversal", ctx,
		mock.AnythingOfType("domain.Transaction"), originalID,
		mock.AnythingOfType("map[string]decimal.Decimal"),
		mock.AnythingOfType("*domain.IdempotencyRecord")).
		Run(func(args mock.Arguments) {
			reversal := args.Get(1).(domain.Transaction)
			changes := args.Get(3).(map[string]decimal.Decimal)

			suite.Require().NotNil(reversal.ReversesTransactionID)
			suite.Equal(originalID, *reversal.ReversesTransactionID)
			suite.Require().Len(reversal.Lines, 2)
			// Sides flip, amounts are preserved.
			suite.Equal(domain.Credit, reversal.Lines[0].Side)
			suite.Equal(domain.Debit, reversal.Lines[1].Side)
			suite.True(reversal.Lines[0].Amount.Equal(decimal.NewFromInt(100)))
			// The reversal undoes the original balance effects.
			suite.True(changes[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(-100)))
			suite.True(changes[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(-100)))
		}).
		Return(&domain.Transaction{TransactionID: uuid.NewString(), CompanyID: suite.companyID}, nil).Once()

	reversal, err := suite.service.VoidTransaction(ctx, suite.companyID, originalID,
		dto.VoidTransactionRequest{Reason: "entered twice", IdempotencyKey: key}, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestVoidTransaction_AlreadyVoid() {
	ctx := context.Background()
	originalID := uuid.NewString()
	key := uuid.NewString()

	suite.expectFreshKey(domain.OpVoidTransaction, key)
	suite.mockTxnRepo.On("FindTransactionByID", ctx, originalID).
		Return(&domain.Transaction{TransactionID: originalID, CompanyID: suite.companyID, IsVoid: true}, nil).Once()

	_, err := suite.service.VoidTransaction(ctx, suite.companyID, originalID,
		dto.VoidTransactionRequest{Reason: "dup", IdempotencyKey: key}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyVoid)
}

func (suite *LedgerServiceTestSuite) TestVoidTransaction_RejectsVoidOfReversal() {
	ctx := context.Background()
	reversalID := uuid.NewString()
	origID := uuid.NewString()
	key := uuid.NewString()

	suite.expectFreshKey(domain.OpVoidTransaction, key)
	suite.mockTxnRepo.On("FindTransactionByID", ctx, reversalID).
		Return(&domain.Transaction{TransactionID: reversalID, CompanyID: suite.companyID, ReversesTransactionID: &origID}, nil).Once()

	_, err := suite.service.VoidTransaction(ctx, suite.companyID, reversalID,
		dto.VoidTransactionRequest{Reason: "oops", IdempotencyKey: key}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrVoidOfReversal)
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_WrongCompany() {
	ctx := context.Background()
	txnID := uuid.NewString()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txnID).
		Return(&domain.Transaction{TransactionID: txnID, CompanyID: "someone-else"}, nil).Once()

	_, err := suite.service.GetTransactionByID(ctx, suite.companyID, txnID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
