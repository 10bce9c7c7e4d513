package engine

import (
	"fmt"
	"math"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/odds"
)

// AggregateParlay combina os status terminais das pernas em um resultado
// único do parlay. O chamador garante que toda perna já está terminal;
// qualquer perna ainda pendente bloqueia a agregação.
//
// Prioridade: qualquer perna perdida derruba o parlay; todas empatadas
// devolve o stake; caso contrário o parlay ganha. Cada perna mantém o seu
// próprio status independente do resultado do pai.
//
// Perna CANCELLED é tratada como push (perna anulada reduz o combo), a
// regra usual das casas pra pernas sem grade.
func AggregateParlay(p Parlay) (Outcome, error) {
	if len(p.Legs) == 0 {
		return Outcome{}, fmt.Errorf("parlay %s has no legs", p.ID)
	}

	var wonLegs []Leg
	for _, l := range p.Legs {
		switch l.Status {
		case StatusWon:
			wonLegs = append(wonLegs, l)
		case StatusPushed, StatusCancelled:
			// perna anulada: sai do combo sem derrubar o parlay
		case StatusLost:
			return Outcome{Status: StatusLost, AmountCents: 0}, nil
		default:
			return Outcome{}, fmt.Errorf("parlay %s: leg %s still %s", p.ID, l.ID, l.Status)
		}
	}

	if len(wonLegs) == 0 {
		// todas as pernas empataram ou foram anuladas
		return Outcome{Status: StatusPushed, AmountCents: p.StakeCents, Reason: "all legs pushed"}, nil
	}

	// Sobrando exatamente uma perna vencedora, o parlay vira uma aposta
	// simples na odd daquela perna.
	if len(wonLegs) == 1 {
		profit, err := odds.PayoutCents(p.StakeCents, wonLegs[0].Odds)
		if err != nil {
			return Outcome{
				Status:      StatusCancelled,
				AmountCents: p.StakeCents,
				Reason:      fmt.Sprintf("invalid odds %d on surviving leg %s", wonLegs[0].Odds, wonLegs[0].ID),
			}, nil
		}
		return Outcome{
			Status:      StatusWon,
			AmountCents: p.StakeCents + profit,
			Reason:      "single surviving leg settled at its own odds",
		}, nil
	}

	// Com pushes no meio de vitórias, o lucro original é escalado pela razão
	// pernas-vencedoras / pernas-originais. Aproximação assumida da
	// plataforma; a recombinação exata multiplicaria as odds decimais das
	// pernas sobreviventes.
	ratio := float64(len(wonLegs)) / float64(len(p.Legs))
	scaled := int64(math.Round(float64(p.PayoutCents) * ratio))
	out := Outcome{Status: StatusWon, AmountCents: p.StakeCents + scaled}
	if len(wonLegs) < len(p.Legs) {
		out.Reason = fmt.Sprintf("payout scaled to %d/%d winning legs", len(wonLegs), len(p.Legs))
	}
	return out, nil
}
