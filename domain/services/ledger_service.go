package services

import (
	"context"
	"fmt"
	"time"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/interfaces"
	"oddsmatch/domain/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ledgerService struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
	now                time.Time
}

// NewLedgerService creates a ledger over the account store. now stamps the
// balance history so replays produce identical records.
func NewLedgerService(accountRepo interfaces.AccountRepository, balanceHistoryRepo interfaces.BalanceHistoryRepository, eventPublisher interfaces.EventPublisher, now time.Time) interfaces.Ledger {
	return &ledgerService{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		now:                now,
	}
}

// Debit withdraws amount from the account
func (s *ledgerService) Debit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error {
	if amount <= 0 {
		return entities.NewValidationError("debit amount must be positive")
	}

	acc, err := s.accountRepo.GetByName(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil || acc.Balance < amount {
		var have int64
		if acc != nil {
			have = acc.Balance
		}
		return fmt.Errorf("%w: %s has %d, needs %d", entities.ErrInsufficientFunds, account, have, amount)
	}

	return s.apply(ctx, acc, -amount, txType, betUUID)
}

// Credit deposits amount to the account, creating it when missing
func (s *ledgerService) Credit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error {
	if amount <= 0 {
		return entities.NewValidationError("credit amount must be positive")
	}

	acc, err := s.accountRepo.GetByName(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		acc, err = s.accountRepo.Create(ctx, account, 0)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
	}

	if _, err := entities.AddStake(acc.Balance, amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", account, err)
	}
	return s.apply(ctx, acc, amount, txType, betUUID)
}

// Balance returns the account balance, zero for unknown accounts
func (s *ledgerService) Balance(ctx context.Context, account string) (int64, error) {
	acc, err := s.accountRepo.GetByName(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if acc == nil {
		return 0, nil
	}
	return acc.Balance, nil
}

func (s *ledgerService) apply(ctx context.Context, acc *entities.Account, change int64, txType entities.TransactionType, betUUID *uuid.UUID) error {
	newBalance := acc.Balance + change
	if err := s.accountRepo.UpdateBalance(ctx, acc.Name, newBalance); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	history := &entities.BalanceHistory{
		Account:         acc.Name,
		BalanceBefore:   acc.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    change,
		TransactionType: txType,
		CreatedAt:       s.now,
	}
	if betUUID != nil {
		id := betUUID.String()
		history.BetUUID = &id
	}

	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"account":         acc.Name,
		"change":          change,
		"newBalance":      newBalance,
		"transactionType": txType,
	}).Debug("Applied ledger change")
	return nil
}
