// Package exchange owns the transaction lifecycle: card request, user
// confirmation, trader confirmation with settlement, and expiry.
//
// Statuses move strictly forward (pending -> user_confirmed -> completed);
// every transition is a conditional update keyed on the expected current
// status, so a repeated confirmation fails cleanly instead of
// double-applying its effects.
package exchange

import (
	"context"
	"errors"
	"time"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"
	"peerpay/internal/services/allocator"
	"peerpay/internal/services/settlement"

	"go.uber.org/zap"
)

// Service is the transaction state machine.
type Service interface {
	// RequestCard allocates a card for amount/currency, reserves its
	// usage and opens a pending transaction with a 30 minute expiry.
	RequestCard(ctx context.Context, userID string, amount float64, currency string) (*RequestCardResult, error)
	// ConfirmPayment is the user asserting they paid the fiat amount.
	ConfirmPayment(ctx context.Context, userID, transactionID string) error
	// ConfirmReceipt is the trader asserting they received the fiat; it
	// claims completion of the transaction and settles it.
	ConfirmReceipt(ctx context.Context, traderID, transactionID string) (*settlement.Result, error)
	ListForUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ListForTrader(ctx context.Context, traderID string) ([]models.Transaction, error)
	// StartExpirySweep launches the background pass that cancels expired
	// pending transactions and releases their reserved card usage.
	StartExpirySweep(ctx context.Context, interval time.Duration)
}

type service struct {
	txns      repositories.TransactionRepository
	cards     repositories.CardRepository
	allocator allocator.Service
	settle    settlement.Service
}

func New(
	txns repositories.TransactionRepository,
	cards repositories.CardRepository,
	alloc allocator.Service,
	settle settlement.Service,
) Service {
	return &service{
		txns:      txns,
		cards:     cards,
		allocator: alloc,
		settle:    settle,
	}
}

func (s *service) RequestCard(ctx context.Context, userID string, amount float64, currency string) (*RequestCardResult, error) {
	card, err := s.allocator.Allocate(ctx, amount, currency)
	if err != nil {
		return nil, err
	}

	// The reserve re-checks capacity in the same statement; losing the
	// race between selection and reservation is a clean failure, not a
	// retry.
	if err := s.cards.ReserveUsage(ctx, card.ID, amount); err != nil {
		if errors.Is(err, repositories.ErrCardCapacity) {
			return nil, allocator.ErrNoCardCapacity
		}
		return nil, err
	}

	txn := &models.Transaction{
		UserID:    userID,
		TraderID:  card.TraderID,
		CardID:    card.ID,
		Amount:    amount,
		Currency:  card.Currency,
		Status:    models.TransactionPending,
		ExpiresAt: time.Now().UTC().Add(models.TransactionTTL),
	}
	if err := s.txns.Create(ctx, txn); err != nil {
		// Without a transaction row the sweep can never reclaim this
		// reservation, so give it back here.
		if relErr := s.cards.ReleaseUsage(ctx, card.ID, amount); relErr != nil {
			logger.Log.Warn("usage release failed",
				zap.String("card_id", card.ID),
				zap.Float64("amount", amount),
				zap.Error(relErr))
		}
		return nil, err
	}

	logger.Log.Info("card allocated",
		zap.String("transaction_id", txn.ID),
		zap.String("card_id", card.ID),
		zap.Float64("amount", amount))

	return &RequestCardResult{
		TransactionID: txn.ID,
		Card: CardDetails{
			BankName:   card.BankName,
			CardNumber: card.CardNumber,
			HolderName: card.HolderName,
			Amount:     amount,
			Currency:   card.Currency,
		},
		ExpiresAt: txn.ExpiresAt,
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, userID, transactionID string) error {
	if _, err := s.txns.GetByIDForUser(ctx, transactionID, userID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	now := time.Now().UTC()
	err := s.txns.UpdateStatus(ctx, transactionID,
		models.TransactionPending, models.TransactionUserConfirmed,
		map[string]interface{}{"user_confirmed_at": &now})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return ErrAlreadyProcessed
		}
		return err
	}
	return nil
}

func (s *service) ConfirmReceipt(ctx context.Context, traderID, transactionID string) (*settlement.Result, error) {
	txn, err := s.txns.GetByIDForTrader(ctx, transactionID, traderID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Status != models.TransactionUserConfirmed {
		return nil, ErrAwaitingUserConfirm
	}

	// Claim the completion before touching the balance so that of two
	// concurrent confirmations only one can settle.
	now := time.Now().UTC()
	err = s.txns.UpdateStatus(ctx, transactionID,
		models.TransactionUserConfirmed, models.TransactionCompleted,
		map[string]interface{}{"completed_at": &now})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, ErrAlreadyProcessed
		}
		return nil, err
	}

	result, err := s.settle.Settle(ctx, txn)
	if err != nil {
		// Hand the claim back so the trader can retry once the balance
		// allows it.
		revertErr := s.txns.UpdateStatus(ctx, transactionID,
			models.TransactionCompleted, models.TransactionUserConfirmed,
			map[string]interface{}{"completed_at": nil})
		if revertErr != nil {
			logger.Log.Error("completion claim revert failed",
				zap.String("transaction_id", transactionID),
				zap.Error(revertErr))
		}
		return nil, err
	}
	return result, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.txns.ListByUser(ctx, userID)
}

// ListForTrader attaches each transaction's card so the trader sees which
// card the payment is expected on. The reads are not transactionally
// consistent with concurrent writes; a deleted card shows as absent.
func (s *service) ListForTrader(ctx context.Context, traderID string) ([]models.Transaction, error) {
	txns, err := s.txns.ListByTrader(ctx, traderID)
	if err != nil {
		return nil, err
	}
	for i := range txns {
		if card, err := s.cards.GetByID(ctx, txns[i].CardID); err == nil {
			txns[i].Card = card
		}
	}
	return txns, nil
}
