package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/odds"
)

// ErrGameNotFinal indica que o jogo ainda não terminou; a aposta fica
// intocada e será reavaliada na próxima varredura. Não é uma falha.
var ErrGameNotFinal = errors.New("game not final")

// tolerância pra comparação de margem com linhas fracionadas (.5)
const marginEps = 1e-9

// Evaluate resolve uma aposta simples contra o placar final do seu jogo.
// Ponto único de despacho por tipo de aposta.
//
// Falha de parsing ou de casamento de time nunca derruba o lote: vira
// CANCELLED com stake devolvido e um motivo legível.
func Evaluate(b StraightBet, res GameResult) (Outcome, error) {
	if !res.Completed {
		return Outcome{}, ErrGameNotFinal
	}

	switch b.Kind {
	case KindMoneyline, KindSpread, KindTotal, KindLive:
		return evaluateScored(b, res), nil
	case KindProp:
		// props não têm grade automática a partir do placar
		return cancelled(b, "prop bets require manual grading"), nil
	case KindParlay:
		return cancelled(b, "parlay parent cannot be evaluated as a straight bet"), nil
	default:
		return cancelled(b, fmt.Sprintf("unknown bet kind %q", b.Kind)), nil
	}
}

// evaluateScored cobre os tipos resolvíveis por margem de pontos:
// margem > 0 ganha, == 0 empata (push), < 0 perde.
func evaluateScored(b StraightBet, res GameResult) Outcome {
	margin, err := Margin(b.Kind, b.Selection, res.HomeTeam, res.AwayTeam, res.HomeScore, res.AwayScore)
	if err != nil {
		return cancelled(b, err.Error())
	}

	switch {
	case math.Abs(margin) <= marginEps:
		return Outcome{Status: StatusPushed, AmountCents: b.StakeCents, Reason: "push: stake returned"}
	case margin > 0:
		profit, perr := odds.PayoutCents(b.StakeCents, b.Odds)
		if perr != nil {
			return cancelled(b, fmt.Sprintf("invalid odds %d", b.Odds))
		}
		return Outcome{Status: StatusWon, AmountCents: b.StakeCents + profit}
	default:
		return Outcome{Status: StatusLost, AmountCents: 0}
	}
}

// EvaluateLeg resolve uma perna de parlay contra o placar do seu próprio
// jogo. Pernas não carregam stake; só o status terminal importa aqui.
func EvaluateLeg(l Leg, res GameResult) (Outcome, error) {
	return Evaluate(StraightBet{
		ID:        l.ID,
		GameID:    l.GameID,
		Kind:      l.Kind,
		Selection: l.Selection,
		Odds:      l.Odds,
	}, res)
}

func cancelled(b StraightBet, reason string) Outcome {
	return Outcome{Status: StatusCancelled, AmountCents: b.StakeCents, Reason: reason}
}
