package exchange

import "time"

// CardDetails is the payment destination shown to the user after a card
// was allocated for their request.
type CardDetails struct {
	BankName   string  `json:"bank_name"`
	CardNumber string  `json:"card_number"`
	HolderName string  `json:"holder_name"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// RequestCardResult is the response to a card request: where to pay, how
// much, and until when.
type RequestCardResult struct {
	TransactionID string      `json:"transaction_id"`
	Card          CardDetails `json:"card"`
	ExpiresAt     time.Time   `json:"expires_at"`
}
