package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/store"
	"github.com/radieske/sports-bet-settlement-poc/pkg/contracts/events"
)

// RunState é a fase corrente de uma varredura de liquidação.
type RunState string

const (
	StateCollect      RunState = "COLLECT"
	StateResolveGames RunState = "RESOLVE_GAMES"
	StateEvaluate     RunState = "EVALUATE"
	StateApply        RunState = "APPLY"
	StateDone         RunState = "DONE"
	StateFailed       RunState = "FAILED"
)

// Store é o contrato de persistência usado pela liquidação.
type Store interface {
	QueryPendingStraights(ctx context.Context, gameID string) ([]engine.StraightBet, error)
	QueryPendingParlays(ctx context.Context, gameID string) ([]engine.Parlay, error)
	Legs(ctx context.Context, parlayID string) ([]engine.Leg, error)
	SettleConditional(ctx context.Context, betID string, st engine.Status, amountCents int64, settledAt time.Time) (bool, error)
	SettleLegConditional(ctx context.Context, legID string, st engine.Status) (bool, error)
	AppendHistory(ctx context.Context, rec store.HistoryRecord) error
	UpsertResult(ctx context.Context, r engine.GameResult) error
}

// ScoreSource entrega os placares finalizados por esporte. Jogos em
// andamento simplesmente não aparecem no mapa.
type ScoreSource interface {
	FinalScores(ctx context.Context, sport string, lookbackDays int) (map[string]engine.GameResult, error)
}

// Notifier avisa o dono da aposta. Falha de notificação nunca aborta a
// liquidação.
type Notifier interface {
	NotifySettled(ctx context.Context, e events.BetSettled) error
}

// Orchestrator dirige uma varredura: coleta apostas PENDING, resolve
// placares finalizados, avalia e aplica as transições exatamente uma vez
// por aposta. O progresso é por aposta, nunca atômico em lote; a varredura
// pode ser cancelada entre apostas sem corromper estado.
type Orchestrator struct {
	Log      *zap.Logger
	Store    Store
	Scores   ScoreSource
	Notifier Notifier

	Sports       []string
	LookbackDays int

	OnSettled  func(status string) // métricas
	OnConflict func()              // liquidação concorrente detectada
	OnError    func(stage string)  // erros por fase
}

// Run executa a varredura completa sobre todas as apostas pendentes.
func (o *Orchestrator) Run(ctx context.Context) error { return o.run(ctx, "") }

// RunForGame executa uma varredura restrita a um jogo recém-finalizado,
// disparada pelo completion trigger.
func (o *Orchestrator) RunForGame(ctx context.Context, gameID string) error {
	return o.run(ctx, gameID)
}

// application é uma transição avaliada aguardando o update condicional.
type application struct {
	betID  string
	userID string
	gameID string
	isLeg  bool
	out    engine.Outcome
}

func (o *Orchestrator) run(ctx context.Context, gameID string) error {
	o.Log.Debug("settlement run", zap.String("state", string(StateCollect)), zap.String("gameId", gameID))

	straights, err := o.Store.QueryPendingStraights(ctx, gameID)
	if err != nil {
		return o.fail(StateCollect, "collect straights", err)
	}
	parlays, err := o.Store.QueryPendingParlays(ctx, gameID)
	if err != nil {
		return o.fail(StateCollect, "collect parlays", err)
	}
	if len(straights) == 0 && len(parlays) == 0 {
		o.Log.Debug("settlement run", zap.String("state", string(StateDone)), zap.String("reason", "nothing pending"))
		return nil
	}

	o.Log.Debug("settlement run", zap.String("state", string(StateResolveGames)))
	results := o.resolveGames(ctx)
	o.persistResults(ctx, results, straights, parlays)

	o.Log.Debug("settlement run", zap.String("state", string(StateEvaluate)))
	applies := o.evaluate(straights, parlays, results)

	o.Log.Debug("settlement run", zap.String("state", string(StateApply)))
	settled := 0
	for _, a := range applies {
		// cancelamento gracioso: cada update já commitado fica de pé
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.applyOne(ctx, a) {
			settled++
		}
	}
	for _, p := range parlays {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.applyParlay(ctx, p) {
			settled++
		}
	}

	o.Log.Info("settlement run done",
		zap.String("gameId", gameID),
		zap.Int("straights", len(straights)),
		zap.Int("parlays", len(parlays)),
		zap.Int("settled", settled),
	)
	return nil
}

func (o *Orchestrator) fail(state RunState, stage string, err error) error {
	o.Log.Error("settlement run failed",
		zap.String("state", string(StateFailed)),
		zap.String("from", string(state)),
		zap.Error(err),
	)
	if o.OnError != nil {
		o.OnError(stage)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// resolveGames agrega os placares finalizados de todos os esportes
// configurados. Falha de um esporte não bloqueia os demais.
func (o *Orchestrator) resolveGames(ctx context.Context) map[string]engine.GameResult {
	results := make(map[string]engine.GameResult)
	for _, sport := range o.Sports {
		m, err := o.Scores.FinalScores(ctx, sport, o.LookbackDays)
		if err != nil {
			o.Log.Warn("score source failed", zap.String("sport", sport), zap.Error(err))
			if o.OnError != nil {
				o.OnError("scores")
			}
			continue
		}
		for id, r := range m {
			results[id] = r
		}
	}
	return results
}

// persistResults grava os placares dos jogos efetivamente referenciados
// por apostas pendentes. Erro aqui é só logado; a avaliação usa o mapa em
// memória.
func (o *Orchestrator) persistResults(ctx context.Context, results map[string]engine.GameResult, straights []engine.StraightBet, parlays []engine.Parlay) {
	referenced := make(map[string]struct{})
	for _, b := range straights {
		referenced[b.GameID] = struct{}{}
	}
	for _, p := range parlays {
		for _, l := range p.Legs {
			referenced[l.GameID] = struct{}{}
		}
	}
	for id := range referenced {
		r, ok := results[id]
		if !ok {
			continue
		}
		if err := o.Store.UpsertResult(ctx, r); err != nil {
			o.Log.Warn("persist game result", zap.String("gameId", id), zap.Error(err))
		}
	}
}

func (o *Orchestrator) evaluate(straights []engine.StraightBet, parlays []engine.Parlay, results map[string]engine.GameResult) []application {
	var applies []application

	for _, b := range straights {
		res, ok := results[b.GameID]
		if !ok {
			continue // jogo ainda não final: aposta fica intocada
		}
		out, err := engine.Evaluate(b, res)
		if errors.Is(err, engine.ErrGameNotFinal) {
			continue
		}
		if err != nil {
			o.Log.Error("evaluate bet", zap.String("betId", b.ID), zap.Error(err))
			if o.OnError != nil {
				o.OnError("evaluate")
			}
			continue
		}
		applies = append(applies, application{betID: b.ID, userID: b.UserID, gameID: b.GameID, out: out})
	}

	// pernas de parlay são avaliadas cada uma contra o seu próprio jogo e
	// recebem status terminal independente do resultado do pai
	for _, p := range parlays {
		for _, l := range p.Legs {
			if l.Status.Terminal() {
				continue
			}
			res, ok := results[l.GameID]
			if !ok {
				continue
			}
			out, err := engine.EvaluateLeg(l, res)
			if errors.Is(err, engine.ErrGameNotFinal) {
				continue
			}
			if err != nil {
				o.Log.Error("evaluate leg", zap.String("legId", l.ID), zap.Error(err))
				if o.OnError != nil {
					o.OnError("evaluate")
				}
				continue
			}
			applies = append(applies, application{betID: l.ID, userID: p.UserID, gameID: l.GameID, isLeg: true, out: out})
		}
	}

	return applies
}

// applyOne commita uma transição com update condicional WHERE status=PENDING.
// Zero linhas afetadas significa liquidação concorrente: no-op, não erro.
func (o *Orchestrator) applyOne(ctx context.Context, a application) bool {
	var ok bool
	var err error
	if a.isLeg {
		ok, err = o.Store.SettleLegConditional(ctx, a.betID, a.out.Status)
	} else {
		ok, err = o.Store.SettleConditional(ctx, a.betID, a.out.Status, a.out.AmountCents, time.Now())
	}
	if err != nil {
		// falha isolada: o resto do lote segue
		o.Log.Error("apply settlement", zap.String("betId", a.betID), zap.Error(err))
		if o.OnError != nil {
			o.OnError("apply")
		}
		return false
	}
	if !ok {
		o.Log.Debug("already settled concurrently", zap.String("betId", a.betID))
		if o.OnConflict != nil {
			o.OnConflict()
		}
		return false
	}

	if o.OnSettled != nil {
		o.OnSettled(string(a.out.Status))
	}

	if err := o.Store.AppendHistory(ctx, store.HistoryRecord{
		BetID:       a.betID,
		OldStatus:   string(engine.StatusPending),
		NewStatus:   string(a.out.Status),
		AmountCents: a.out.AmountCents,
		Reason:      a.out.Reason,
	}); err != nil {
		o.Log.Warn("append history", zap.String("betId", a.betID), zap.Error(err))
	}

	// pernas não notificam; o dono é avisado pelo resultado do pai
	if !a.isLeg && o.Notifier != nil {
		if err := o.Notifier.NotifySettled(ctx, events.BetSettled{
			BetID:       a.betID,
			UserID:      a.userID,
			Status:      string(a.out.Status),
			AmountCents: a.out.AmountCents,
			Reason:      a.out.Reason,
			GameID:      a.gameID,
		}); err != nil {
			o.Log.Warn("notify settled", zap.String("betId", a.betID), zap.Error(err))
		}
	}
	return true
}

// applyParlay re-lê as pernas direto do banco logo antes de agregar, pra
// não combinar estado que uma execução concorrente mudou no meio do
// caminho. Qualquer perna ainda pendente deixa o pai intocado.
func (o *Orchestrator) applyParlay(ctx context.Context, p engine.Parlay) bool {
	legs, err := o.Store.Legs(ctx, p.ID)
	if err != nil {
		o.Log.Error("reload legs", zap.String("parlayId", p.ID), zap.Error(err))
		if o.OnError != nil {
			o.OnError("apply")
		}
		return false
	}
	for _, l := range legs {
		if !l.Status.Terminal() {
			return false
		}
	}

	fresh := p
	fresh.Legs = legs
	out, err := engine.AggregateParlay(fresh)
	if err != nil {
		o.Log.Error("aggregate parlay", zap.String("parlayId", p.ID), zap.Error(err))
		if o.OnError != nil {
			o.OnError("aggregate")
		}
		return false
	}

	return o.applyOne(ctx, application{betID: p.ID, userID: p.UserID, out: out})
}
