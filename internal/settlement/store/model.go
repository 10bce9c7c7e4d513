package store

import "time"

// HistoryRecord é o registro imutável de liquidação gravado a cada transição
// de status. Nunca é atualizado nem removido.
type HistoryRecord struct {
	ID          string
	BetID       string
	OldStatus   string
	NewStatus   string
	AmountCents int64
	Reason      string
	CreatedAt   time.Time
}
