// Package allocator selects an eligible bank card for an incoming
// exchange request.
package allocator

import (
	"context"
	"errors"

	"peerpay/internal/models"
	"peerpay/internal/repositories"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrNoActiveCards means no active card exists for the currency at all.
	ErrNoActiveCards = errors.New("no available cards")
	// ErrNoCardCapacity means cards exist but none has enough headroom.
	ErrNoCardCapacity = errors.New("no card with sufficient limit")
)

// Service picks a card for a requested amount and currency.
type Service interface {
	// Allocate returns the first active card of the requested currency
	// whose remaining capacity covers amount. Selection has no side
	// effects; the caller reserves usage separately.
	Allocate(ctx context.Context, amount float64, currency string) (*models.Card, error)
}

type service struct {
	cards repositories.CardRepository
}

func New(cards repositories.CardRepository) Service {
	return &service{cards: cards}
}

// Allocate is first-fit over the store's insertion order: it does not
// load-balance across traders or minimize fragmentation.
func (s *service) Allocate(ctx context.Context, amount float64, currency string) (*models.Card, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}

	cards, err := s.cards.ListActiveByCurrency(ctx, currency)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNoActiveCards
	}

	for i := range cards {
		if cards[i].Headroom() >= amount {
			return &cards[i], nil
		}
	}
	return nil, ErrNoCardCapacity
}
