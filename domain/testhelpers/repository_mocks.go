package testhelpers

import (
	"context"

	"oddsmatch/domain/entities"
	"oddsmatch/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Create(ctx context.Context, game *entities.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) Update(ctx context.Context, game *entities.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) Remove(ctx context.Context, gameUUID uuid.UUID) error {
	args := m.Called(ctx, gameUUID)
	return args.Error(0)
}

func (m *MockGameRepository) GetByUUID(ctx context.Context, gameUUID uuid.UUID) (*entities.Game, error) {
	args := m.Called(ctx, gameUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Game), args.Error(1)
}

func (m *MockGameRepository) GetAll(ctx context.Context) ([]*entities.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Game), args.Error(1)
}

// MockPendingBetRepository is a mock implementation of PendingBetRepository
type MockPendingBetRepository struct {
	mock.Mock
}

func (m *MockPendingBetRepository) Create(ctx context.Context, bet *entities.PendingBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockPendingBetRepository) Update(ctx context.Context, bet *entities.PendingBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockPendingBetRepository) Remove(ctx context.Context, betUUID uuid.UUID) error {
	args := m.Called(ctx, betUUID)
	return args.Error(0)
}

func (m *MockPendingBetRepository) GetByUUID(ctx context.Context, betUUID uuid.UUID) (*entities.PendingBet, error) {
	args := m.Called(ctx, betUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingBet), args.Error(1)
}

func (m *MockPendingBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.PendingBet, error) {
	args := m.Called(ctx, gameUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingBet), args.Error(1)
}

func (m *MockPendingBetRepository) GetByGameWincase(ctx context.Context, gameUUID uuid.UUID, wincase entities.Wincase) ([]*entities.PendingBet, error) {
	args := m.Called(ctx, gameUUID, wincase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingBet), args.Error(1)
}

// MockMatchedBetRepository is a mock implementation of MatchedBetRepository
type MockMatchedBetRepository struct {
	mock.Mock
}

func (m *MockMatchedBetRepository) Create(ctx context.Context, bet *entities.MatchedBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockMatchedBetRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMatchedBetRepository) GetByID(ctx context.Context, id int64) (*entities.MatchedBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchedBet), args.Error(1)
}

func (m *MockMatchedBetRepository) GetByGame(ctx context.Context, gameUUID uuid.UUID) ([]*entities.MatchedBet, error) {
	args := m.Called(ctx, gameUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MatchedBet), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByName(ctx context.Context, name string) (*entities.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, name string, initialBalance int64) (*entities.Account, error) {
	args := m.Called(ctx, name, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, name string, newBalance int64) error {
	args := m.Called(ctx, name, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, name string, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockBetUUIDHistoryRepository is a mock implementation of BetUUIDHistoryRepository
type MockBetUUIDHistoryRepository struct {
	mock.Mock
}

func (m *MockBetUUIDHistoryRepository) Exists(ctx context.Context, betUUID uuid.UUID) (bool, error) {
	args := m.Called(ctx, betUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBetUUIDHistoryRepository) Add(ctx context.Context, betUUID uuid.UUID) error {
	args := m.Called(ctx, betUUID)
	return args.Error(0)
}

// MockGlobalPropertiesRepository is a mock implementation of GlobalPropertiesRepository
type MockGlobalPropertiesRepository struct {
	mock.Mock
}

func (m *MockGlobalPropertiesRepository) Get(ctx context.Context) (*entities.GlobalProperties, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GlobalProperties), args.Error(1)
}

func (m *MockGlobalPropertiesRepository) Update(ctx context.Context, props *entities.GlobalProperties) error {
	args := m.Called(ctx, props)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
