package dto

import "time"

type OfferResponse struct {
	BetID           string    `json:"betId"`
	Available       bool      `json:"available"`
	Reason          string    `json:"reason,omitempty"`
	StakeCents      int64     `json:"stake_cents,omitempty"`
	FullWinCents    int64     `json:"full_win_cents,omitempty"`
	ValueCents      int64     `json:"value_cents,omitempty"`
	ProfitLossCents int64     `json:"profit_loss_cents,omitempty"`
	ExpiresAt       time.Time `json:"expires_at,omitempty"`
}

type AcceptRequest struct {
	ValueCents int64 `json:"value_cents"`
}

type AcceptResponse struct {
	BetID      string `json:"betId"`
	Status     string `json:"status"`
	ValueCents int64  `json:"value_cents"`
}
