package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"peerpay/internal/models"
	"peerpay/internal/repositories"
	"peerpay/internal/services/allocator"
	"peerpay/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTxnRepo struct {
	mock.Mock
}

func (m *mockTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockTxnRepo) GetByIDForUser(ctx context.Context, id, userID string) (*models.Transaction, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Transaction, error) {
	args := m.Called(ctx, id, traderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) ListByTrader(ctx context.Context, traderID string) ([]models.Transaction, error) {
	args := m.Called(ctx, traderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) List(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) UpdateStatus(ctx context.Context, id string, from, to models.TransactionStatus, extra map[string]interface{}) error {
	return m.Called(ctx, id, from, to, extra).Error(0)
}

func (m *mockTxnRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTxnRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTxnRepo) CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTxnRepo) CountByUser(ctx context.Context, userID string, statuses ...models.TransactionStatus) (int64, error) {
	args := m.Called(ctx, userID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTxnRepo) CountByTrader(ctx context.Context, traderID string, statuses ...models.TransactionStatus) (int64, error) {
	args := m.Called(ctx, traderID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

type mockCardRepo struct {
	mock.Mock
}

func (m *mockCardRepo) Create(ctx context.Context, card *models.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id string) (*models.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *mockCardRepo) GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Card, error) {
	args := m.Called(ctx, id, traderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *mockCardRepo) ListByTrader(ctx context.Context, traderID string) ([]models.Card, error) {
	args := m.Called(ctx, traderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *mockCardRepo) ListActiveByCurrency(ctx context.Context, currency string) ([]models.Card, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *mockCardRepo) Update(ctx context.Context, id, traderID string, patch models.CardUpdate) (*models.Card, error) {
	args := m.Called(ctx, id, traderID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *mockCardRepo) Delete(ctx context.Context, id, traderID string) error {
	return m.Called(ctx, id, traderID).Error(0)
}

func (m *mockCardRepo) ReserveUsage(ctx context.Context, id string, amount float64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockCardRepo) ReleaseUsage(ctx context.Context, id string, amount float64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockCardRepo) CountByTrader(ctx context.Context, traderID string) (int64, error) {
	args := m.Called(ctx, traderID)
	return args.Get(0).(int64), args.Error(1)
}

type mockTraderRepo struct {
	mock.Mock
}

func (m *mockTraderRepo) Create(ctx context.Context, trader *models.Trader) error {
	return m.Called(ctx, trader).Error(0)
}

func (m *mockTraderRepo) GetByID(ctx context.Context, id string) (*models.Trader, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trader), args.Error(1)
}

func (m *mockTraderRepo) GetByUserID(ctx context.Context, userID string) (*models.Trader, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trader), args.Error(1)
}

func (m *mockTraderRepo) List(ctx context.Context) ([]models.Trader, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trader), args.Error(1)
}

func (m *mockTraderRepo) AddBalance(ctx context.Context, id string, delta float64) (float64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockTraderRepo) DebitBalance(ctx context.Context, id string, amount float64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockTraderRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return m.Called(ctx, id, blocked).Error(0)
}

func (m *mockTraderRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}

func (m *mockSettingsRepo) Update(ctx context.Context, rate float64) (*models.Settings, error) {
	args := m.Called(ctx, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}

type fixture struct {
	txns     *mockTxnRepo
	cards    *mockCardRepo
	traders  *mockTraderRepo
	settings *mockSettingsRepo
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		txns:     new(mockTxnRepo),
		cards:    new(mockCardRepo),
		traders:  new(mockTraderRepo),
		settings: new(mockSettingsRepo),
	}
	alloc := allocator.New(f.cards)
	settle := settlement.New(f.traders, f.settings)
	f.svc = New(f.txns, f.cards, alloc, settle)
	return f
}

func activeCard(id string, limit, usage float64) models.Card {
	return models.Card{
		ID:           id,
		TraderID:     "trader-1",
		CardNumber:   "4539578763621486",
		BankName:     "Monobank",
		HolderName:   "OLENA KOVAL",
		Limit:        limit,
		CurrentUsage: usage,
		Status:       models.CardStatusActive,
		Currency:     "UAH",
	}
}

func TestRequestCard(t *testing.T) {
	t.Run("allocates, reserves usage and opens a pending transaction", func(t *testing.T) {
		f := newFixture()
		f.cards.On("ListActiveByCurrency", mock.Anything, "UAH").
			Return([]models.Card{activeCard("card-1", 1000, 0)}, nil)
		f.cards.On("ReserveUsage", mock.Anything, "card-1", 500.0).Return(nil)
		f.txns.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.UserID == "user-1" &&
				txn.TraderID == "trader-1" &&
				txn.CardID == "card-1" &&
				txn.Amount == 500 &&
				txn.Status == models.TransactionPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Transaction).ID = "txn-1"
		}).Return(nil)

		result, err := f.svc.RequestCard(context.Background(), "user-1", 500, "UAH")

		assert.NoError(t, err)
		assert.Equal(t, "txn-1", result.TransactionID)
		assert.Equal(t, "Monobank", result.Card.BankName)
		assert.Equal(t, "4539578763621486", result.Card.CardNumber)
		assert.Equal(t, 500.0, result.Card.Amount)
		assert.WithinDuration(t, time.Now().UTC().Add(models.TransactionTTL), result.ExpiresAt, 5*time.Second)
		f.txns.AssertExpectations(t)
		f.cards.AssertExpectations(t)
	})

	t.Run("failed transaction insert releases the reservation", func(t *testing.T) {
		f := newFixture()
		f.cards.On("ListActiveByCurrency", mock.Anything, "UAH").
			Return([]models.Card{activeCard("card-1", 1000, 0)}, nil)
		f.cards.On("ReserveUsage", mock.Anything, "card-1", 500.0).Return(nil)
		f.txns.On("Create", mock.Anything, mock.Anything).
			Return(errors.New("connection reset"))
		f.cards.On("ReleaseUsage", mock.Anything, "card-1", 500.0).Return(nil)

		result, err := f.svc.RequestCard(context.Background(), "user-1", 500, "UAH")

		assert.Error(t, err)
		assert.Nil(t, result)
		f.cards.AssertExpectations(t)
	})

	t.Run("losing the reserve race fails without a transaction", func(t *testing.T) {
		f := newFixture()
		f.cards.On("ListActiveByCurrency", mock.Anything, "UAH").
			Return([]models.Card{activeCard("card-1", 1000, 0)}, nil)
		f.cards.On("ReserveUsage", mock.Anything, "card-1", 500.0).
			Return(repositories.ErrCardCapacity)

		result, err := f.svc.RequestCard(context.Background(), "user-1", 500, "UAH")

		assert.ErrorIs(t, err, allocator.ErrNoCardCapacity)
		assert.Nil(t, result)
		f.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount never touches the store", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RequestCard(context.Background(), "user-1", -5, "UAH")

		assert.ErrorIs(t, err, allocator.ErrInvalidAmount)
		f.cards.AssertNotCalled(t, "ListActiveByCurrency", mock.Anything, mock.Anything)
	})

	t.Run("insufficient headroom everywhere", func(t *testing.T) {
		f := newFixture()
		f.cards.On("ListActiveByCurrency", mock.Anything, "UAH").
			Return([]models.Card{activeCard("card-1", 1000, 500)}, nil)

		_, err := f.svc.RequestCard(context.Background(), "user-1", 600, "UAH")

		assert.ErrorIs(t, err, allocator.ErrNoCardCapacity)
	})
}

func TestConfirmPayment(t *testing.T) {
	pending := &models.Transaction{
		ID:     "txn-1",
		UserID: "user-1",
		Status: models.TransactionPending,
	}

	t.Run("moves pending to user_confirmed", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForUser", mock.Anything, "txn-1", "user-1").Return(pending, nil)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionPending, models.TransactionUserConfirmed, mock.Anything).Return(nil)

		err := f.svc.ConfirmPayment(context.Background(), "user-1", "txn-1")

		assert.NoError(t, err)
		f.txns.AssertExpectations(t)
	})

	t.Run("second confirmation fails cleanly", func(t *testing.T) {
		f := newFixture()
		confirmed := &models.Transaction{ID: "txn-1", UserID: "user-1", Status: models.TransactionUserConfirmed}
		f.txns.On("GetByIDForUser", mock.Anything, "txn-1", "user-1").Return(confirmed, nil)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionPending, models.TransactionUserConfirmed, mock.Anything).
			Return(repositories.ErrStatusConflict)

		err := f.svc.ConfirmPayment(context.Background(), "user-1", "txn-1")

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("foreign transaction reads as a miss", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForUser", mock.Anything, "txn-1", "user-2").
			Return(nil, repositories.ErrTransactionNotFound)

		err := f.svc.ConfirmPayment(context.Background(), "user-2", "txn-1")

		assert.ErrorIs(t, err, ErrTransactionNotFound)
		f.txns.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConfirmReceipt(t *testing.T) {
	confirmed := func() *models.Transaction {
		return &models.Transaction{
			ID:       "txn-1",
			UserID:   "user-1",
			TraderID: "trader-1",
			CardID:   "card-1",
			Amount:   50,
			Status:   models.TransactionUserConfirmed,
		}
	}

	t.Run("claims completion and settles", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForTrader", mock.Anything, "txn-1", "trader-1").Return(confirmed(), nil)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionUserConfirmed, models.TransactionCompleted, mock.Anything).Return(nil)
		f.settings.On("Get", mock.Anything).Return(&models.Settings{CommissionRate: 1.0}, nil)
		f.traders.On("DebitBalance", mock.Anything, "trader-1", 49.5).Return(nil)

		result, err := f.svc.ConfirmReceipt(context.Background(), "trader-1", "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, 49.5, result.UsdtSent)
		assert.Equal(t, 0.5, result.Commission)
		f.txns.AssertExpectations(t)
		f.traders.AssertExpectations(t)
	})

	t.Run("losing the completion claim never debits", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForTrader", mock.Anything, "txn-1", "trader-1").Return(confirmed(), nil)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionUserConfirmed, models.TransactionCompleted, mock.Anything).
			Return(repositories.ErrStatusConflict)

		_, err := f.svc.ConfirmReceipt(context.Background(), "trader-1", "txn-1")

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		f.traders.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires user confirmation first", func(t *testing.T) {
		f := newFixture()
		pending := confirmed()
		pending.Status = models.TransactionPending
		f.txns.On("GetByIDForTrader", mock.Anything, "txn-1", "trader-1").Return(pending, nil)

		_, err := f.svc.ConfirmReceipt(context.Background(), "trader-1", "txn-1")

		assert.ErrorIs(t, err, ErrAwaitingUserConfirm)
		f.traders.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient balance reverts the completion claim", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForTrader", mock.Anything, "txn-1", "trader-1").Return(confirmed(), nil)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionUserConfirmed, models.TransactionCompleted, mock.Anything).Return(nil)
		f.settings.On("Get", mock.Anything).Return(&models.Settings{CommissionRate: 1.0}, nil)
		f.traders.On("DebitBalance", mock.Anything, "trader-1", 49.5).
			Return(repositories.ErrInsufficientBalance)
		f.txns.On("UpdateStatus", mock.Anything, "txn-1",
			models.TransactionCompleted, models.TransactionUserConfirmed, mock.Anything).Return(nil)

		_, err := f.svc.ConfirmReceipt(context.Background(), "trader-1", "txn-1")

		assert.ErrorIs(t, err, settlement.ErrInsufficientBalance)
		f.txns.AssertExpectations(t)
	})

	t.Run("foreign transaction reads as a miss", func(t *testing.T) {
		f := newFixture()
		f.txns.On("GetByIDForTrader", mock.Anything, "txn-1", "trader-2").
			Return(nil, repositories.ErrTransactionNotFound)

		_, err := f.svc.ConfirmReceipt(context.Background(), "trader-2", "txn-1")

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestListForTraderAttachesCards(t *testing.T) {
	f := newFixture()
	card := activeCard("card-1", 1000, 500)
	f.txns.On("ListByTrader", mock.Anything, "trader-1").Return([]models.Transaction{
		{ID: "txn-1", TraderID: "trader-1", CardID: "card-1"},
		{ID: "txn-2", TraderID: "trader-1", CardID: "card-gone"},
	}, nil)
	f.cards.On("GetByID", mock.Anything, "card-1").Return(&card, nil)
	f.cards.On("GetByID", mock.Anything, "card-gone").Return(nil, repositories.ErrCardNotFound)

	txns, err := f.svc.ListForTrader(context.Background(), "trader-1")

	assert.NoError(t, err)
	assert.Len(t, txns, 2)
	assert.NotNil(t, txns[0].Card)
	assert.Equal(t, "card-1", txns[0].Card.ID)
	assert.Nil(t, txns[1].Card)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture()
	expired := []models.Transaction{
		{ID: "txn-1", CardID: "card-1", Amount: 300, Status: models.TransactionPending},
		{ID: "txn-2", CardID: "card-2", Amount: 100, Status: models.TransactionPending},
	}
	f.txns.On("ListExpiredPending", mock.Anything, mock.Anything, sweepBatchSize).Return(expired, nil)
	f.txns.On("UpdateStatus", mock.Anything, "txn-1",
		models.TransactionPending, models.TransactionCancelled, mock.Anything).Return(nil)
	// txn-2 was confirmed between the query and the cancel.
	f.txns.On("UpdateStatus", mock.Anything, "txn-2",
		models.TransactionPending, models.TransactionCancelled, mock.Anything).
		Return(repositories.ErrStatusConflict)
	f.cards.On("ReleaseUsage", mock.Anything, "card-1", 300.0).Return(nil)

	f.svc.(*service).sweepExpired(context.Background())

	f.cards.AssertExpectations(t)
	f.cards.AssertNotCalled(t, "ReleaseUsage", mock.Anything, "card-2", mock.Anything)
}
