package testhelpers

import (
	"context"

	"oddsmatch/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Debit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error {
	args := m.Called(ctx, account, amount, txType, betUUID)
	return args.Error(0)
}

func (m *MockLedger) Credit(ctx context.Context, account string, amount int64, txType entities.TransactionType, betUUID *uuid.UUID) error {
	args := m.Called(ctx, account, amount, txType, betUUID)
	return args.Error(0)
}

func (m *MockLedger) Balance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}
