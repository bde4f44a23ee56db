package services

import (
	"context"
	"testing"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"
	"oddsmatch/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerService_Debit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	betUUID := uuid.New()

	t.Run("successful debit records history", func(t *testing.T) {
		accountRepo := new(testhelpers.MockAccountRepository)
		historyRepo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)

		accountRepo.On("GetByName", ctx, "alice").Return(&entities.Account{Name: "alice", Balance: 100}, nil)
		accountRepo.On("UpdateBalance", ctx, "alice", int64(60)).Return(nil)
		historyRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.Account == "alice" &&
				h.BalanceBefore == 100 &&
				h.BalanceAfter == 60 &&
				h.ChangeAmount == -40 &&
				h.TransactionType == entities.TransactionTypeBetPlaced &&
				h.BetUUID != nil && *h.BetUUID == betUUID.String() &&
				h.CreatedAt.Equal(now)
		})).Return(nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.BalanceChangeEvent) bool {
			return e.OldBalance == 100 && e.NewBalance == 60
		})).Return(nil)

		ledger := NewLedgerService(accountRepo, historyRepo, publisher, now)
		err := ledger.Debit(ctx, "alice", 40, entities.TransactionTypeBetPlaced, &betUUID)

		assert.NoError(t, err)
		accountRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		accountRepo := new(testhelpers.MockAccountRepository)
		historyRepo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)

		accountRepo.On("GetByName", ctx, "alice").Return(&entities.Account{Name: "alice", Balance: 10}, nil)

		ledger := NewLedgerService(accountRepo, historyRepo, publisher, now)
		err := ledger.Debit(ctx, "alice", 40, entities.TransactionTypeBetPlaced, &betUUID)

		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
		accountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		accountRepo := new(testhelpers.MockAccountRepository)
		accountRepo.On("GetByName", ctx, "ghost").Return(nil, nil)

		ledger := NewLedgerService(accountRepo, new(testhelpers.MockBalanceHistoryRepository), new(testhelpers.MockEventPublisher), now)
		err := ledger.Debit(ctx, "ghost", 1, entities.TransactionTypeBetPlaced, nil)

		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		ledger := NewLedgerService(new(testhelpers.MockAccountRepository), new(testhelpers.MockBalanceHistoryRepository), new(testhelpers.MockEventPublisher), now)
		assert.ErrorIs(t, ledger.Debit(ctx, "alice", 0, entities.TransactionTypeBetPlaced, nil), entities.ErrValidation)
	})
}

func TestLedgerService_Credit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates missing account", func(t *testing.T) {
		accountRepo := new(testhelpers.MockAccountRepository)
		historyRepo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)

		accountRepo.On("GetByName", ctx, "bob").Return(nil, nil)
		accountRepo.On("Create", ctx, "bob", int64(0)).Return(&entities.Account{Name: "bob"}, nil)
		accountRepo.On("UpdateBalance", ctx, "bob", int64(25)).Return(nil)
		historyRepo.On("Record", ctx, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything).Return(nil)

		ledger := NewLedgerService(accountRepo, historyRepo, publisher, now)
		err := ledger.Credit(ctx, "bob", 25, entities.TransactionTypeBetRefund, nil)

		assert.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})

	t.Run("balance overflow", func(t *testing.T) {
		accountRepo := new(testhelpers.MockAccountRepository)
		accountRepo.On("GetByName", ctx, "bob").Return(&entities.Account{Name: "bob", Balance: 1 << 62}, nil)

		ledger := NewLedgerService(accountRepo, new(testhelpers.MockBalanceHistoryRepository), new(testhelpers.MockEventPublisher), now)
		err := ledger.Credit(ctx, "bob", 1<<62, entities.TransactionTypeBetWin, nil)

		assert.ErrorIs(t, err, entities.ErrOverflow)
		accountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	})
}
