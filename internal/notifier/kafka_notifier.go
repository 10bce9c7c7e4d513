package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/radieske/sports-bet-settlement-poc/internal/shared/kafka"
	"github.com/radieske/sports-bet-settlement-poc/pkg/contracts/events"
)

// KafkaNotifier publica eventos bet_settled. O envio é fire-and-forget do
// ponto de vista da liquidação: falha aqui nunca desfaz um settlement.
type KafkaNotifier struct {
	Writer *kafka.Writer
	DLQ    *kafka.Writer

	write func(ctx context.Context, w *kafka.Writer, key string, payload []byte) error
}

func NewKafkaNotifier(w, dlq *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{Writer: w, DLQ: dlq}
}

const publishRetries = 3

// NotifySettled tenta publicar com retry simples; esgotados os retries o
// payload vai pra DLQ pra reprocessamento manual.
func (n *KafkaNotifier) NotifySettled(ctx context.Context, e events.BetSettled) error {
	write := n.write
	if write == nil {
		write = kafka.WriteJSON
	}

	e.Ts = time.Now()
	b, _ := json.Marshal(e)

	err := write(ctx, n.Writer, e.BetID, b)
	for i := 0; err != nil && i < publishRetries; i++ {
		time.Sleep(time.Duration(100*(i+1)) * time.Millisecond)
		err = write(ctx, n.Writer, e.BetID, b)
	}
	if err != nil && n.DLQ != nil {
		_ = write(ctx, n.DLQ, e.BetID, b)
	}
	return err
}
