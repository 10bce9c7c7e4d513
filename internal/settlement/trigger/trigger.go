package trigger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
)

// PendingSource lista os jogos que ainda têm aposta PENDING, já excluindo
// os que o trigger marcou como finalizados recentemente.
type PendingSource interface {
	PendingGameIDs(ctx context.Context, exclude []string) ([]string, error)
}

// ScoreSource é o mesmo contrato do orquestrador.
type ScoreSource interface {
	FinalScores(ctx context.Context, sport string, lookbackDays int) (map[string]engine.GameResult, error)
}

// Settler dispara a liquidação escopada a um jogo recém-finalizado.
type Settler interface {
	RunForGame(ctx context.Context, gameID string) error
}

// RecentFinals retém por uma janela limitada os jogos já vistos como
// finalizados, pra não reconsultar placar de jogo encerrado.
type RecentFinals interface {
	Known(ctx context.Context) ([]string, error)
	Mark(ctx context.Context, gameID string) error
}

// Trigger é o observador de finalização: um poller de intervalo fixo que
// estreita o escopo de consulta de placares e dispara o orquestrador assim
// que um jogo acompanhado finaliza, sem esperar a próxima varredura
// completa. É só otimização de latência; a varredura periódica continua
// sendo a rede de segurança de correção.
type Trigger struct {
	Log     *zap.Logger
	Pending PendingSource
	Scores  ScoreSource
	Settler Settler
	Recent  RecentFinals

	Interval     time.Duration
	Sports       []string
	LookbackDays int

	OnSweep     func()             // métricas
	OnTriggered func()             // jogo recém-finalizado disparou liquidação
	OnError     func(stage string) // erros por fase

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start sobe o loop supervisionado do poller. Cada iteração contém os
// próprios erros: uma varredura falhada não mata o loop.
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return // já rodando
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()

		t.Log.Info("completion trigger started", zap.Duration("interval", t.Interval))
		for {
			select {
			case <-ctx.Done():
				t.Log.Info("completion trigger stopped")
				return
			case <-ticker.C:
				t.sweep(ctx)
			}
		}
	}()
}

// Stop encerra o loop e espera a iteração corrente terminar.
func (t *Trigger) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// sweep roda uma iteração: reduz o conjunto de jogos observados, consulta
// placares só pra esse conjunto e dispara a liquidação dos recém-finais.
func (t *Trigger) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.Log.Error("trigger sweep panicked", zap.Any("panic", r))
			if t.OnError != nil {
				t.OnError("panic")
			}
		}
	}()

	if t.OnSweep != nil {
		t.OnSweep()
	}

	known, err := t.Recent.Known(ctx)
	if err != nil {
		t.Log.Warn("load recent finals", zap.Error(err))
		if t.OnError != nil {
			t.OnError("recent")
		}
		known = nil // segue sem o filtro; só custa consultas a mais
	}

	watched, err := t.Pending.PendingGameIDs(ctx, known)
	if err != nil {
		t.Log.Warn("load pending game ids", zap.Error(err))
		if t.OnError != nil {
			t.OnError("pending")
		}
		return
	}
	if len(watched) == 0 {
		return
	}

	watchSet := make(map[string]struct{}, len(watched))
	for _, id := range watched {
		watchSet[id] = struct{}{}
	}

	for _, sport := range t.Sports {
		results, err := t.Scores.FinalScores(ctx, sport, t.LookbackDays)
		if err != nil {
			t.Log.Warn("score source failed", zap.String("sport", sport), zap.Error(err))
			if t.OnError != nil {
				t.OnError("scores")
			}
			continue
		}

		for id, res := range results {
			if _, ok := watchSet[id]; !ok || !res.Completed {
				continue
			}
			t.Log.Info("game finalized, triggering settlement", zap.String("gameId", id))
			if err := t.Recent.Mark(ctx, id); err != nil {
				t.Log.Warn("mark recent final", zap.String("gameId", id), zap.Error(err))
			}
			if t.OnTriggered != nil {
				t.OnTriggered()
			}
			if err := t.Settler.RunForGame(ctx, id); err != nil {
				t.Log.Error("scoped settlement failed", zap.String("gameId", id), zap.Error(err))
				if t.OnError != nil {
					t.OnError("settle")
				}
			}
		}
	}
}
