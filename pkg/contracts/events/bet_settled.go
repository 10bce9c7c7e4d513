package events

import "time"

// Evento emitido pelo settlement-worker após liquidar uma aposta.
type BetSettled struct {
	BetID       string    `json:"betId"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status"` // "WON" | "LOST" | "PUSHED" | "CANCELLED" | "CASHED_OUT"
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
	GameID      string    `json:"gameId,omitempty"`
	Ts          time.Time `json:"ts"`
}
