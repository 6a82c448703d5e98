package exchange

import (
	"context"
	"errors"
	"time"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// StartExpirySweep runs a periodic reconciliation pass until ctx is done.
// Each pass cancels pending transactions whose expiry has passed and gives
// the reserved card capacity back. This is the only transition into the
// cancelled state.
func (s *service) StartExpirySweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepExpired(ctx)
			}
		}
	}()
}

func (s *service) sweepExpired(ctx context.Context) {
	txns, err := s.txns.ListExpiredPending(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		logger.Log.Error("expiry sweep query failed", zap.Error(err))
		return
	}

	for _, txn := range txns {
		err := s.txns.UpdateStatus(ctx, txn.ID,
			models.TransactionPending, models.TransactionCancelled, nil)
		if err != nil {
			// A confirmation won the race; leave the transaction alone.
			if errors.Is(err, repositories.ErrStatusConflict) {
				continue
			}
			logger.Log.Error("expiry cancel failed",
				zap.String("transaction_id", txn.ID), zap.Error(err))
			continue
		}

		if err := s.cards.ReleaseUsage(ctx, txn.CardID, txn.Amount); err != nil {
			logger.Log.Warn("usage release failed",
				zap.String("transaction_id", txn.ID),
				zap.String("card_id", txn.CardID),
				zap.Error(err))
			continue
		}

		logger.Log.Info("expired transaction cancelled",
			zap.String("transaction_id", txn.ID),
			zap.Float64("released", txn.Amount))
	}
}
