package valuer

import (
	"math"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/odds"
)

// EpsilonCents é a tolerância entre o valor ofertado e a recomputação fresca
// no aceite. Diferença maior que isso é oferta velha e é rejeitada.
const EpsilonCents = 1

// GameState é o estado ao vivo de um jogo usado na precificação do cash-out.
type GameState struct {
	GameID       string
	HomeTeam     string
	AwayTeam     string
	HomeScore    int
	AwayScore    int
	Period       int
	TotalPeriods int // 4 pra NFL/NBA; 0 = desconhecido
}

// Valuer precifica o cash-out de uma aposta ao vivo. Função pura de
// (termos originais, estado do jogo); sem estado próprio, sem I/O.
type Valuer struct {
	RewardPerPoint  float64 // fração do stake ganha por ponto de margem a favor
	PenaltyPerPoint float64 // fração menor perdida por ponto contra
	LateGameFactor  float64 // amplifica o desvio no último período
	CapRatio        float64 // teto como fração do retorno cheio de vitória
}

// New retorna o valuer com os parâmetros de produto da plataforma.
func New() *Valuer {
	return &Valuer{
		RewardPerPoint:  0.08,
		PenaltyPerPoint: 0.05,
		LateGameFactor:  1.5,
		CapRatio:        0.95,
	}
}

// Value calcula a oferta corrente em centavos, partindo do stake e ajustando
// pela margem assinada da seleção no placar atual. Resultado sempre dentro
// de [0, CapRatio × retorno cheio].
func (v *Valuer) Value(b engine.StraightBet, st GameState) (int64, error) {
	margin, err := engine.Margin(b.Kind, b.Selection, st.HomeTeam, st.AwayTeam, st.HomeScore, st.AwayScore)
	if err != nil {
		return 0, err
	}
	profit, err := odds.PayoutCents(b.StakeCents, b.Odds)
	if err != nil {
		return 0, err
	}
	fullWin := b.StakeCents + profit

	stake := float64(b.StakeCents)
	var delta float64
	if margin >= 0 {
		delta = stake * v.RewardPerPoint * margin
	} else {
		delta = stake * v.PenaltyPerPoint * margin
	}

	// no último período o placar pesa mais: menos jogo pra virar
	if st.TotalPeriods > 0 && st.Period >= st.TotalPeriods {
		delta *= v.LateGameFactor
	}

	value := int64(math.Round(stake + delta))
	cap := int64(math.Round(v.CapRatio * float64(fullWin)))
	if value > cap {
		value = cap
	}
	if value < 0 {
		value = 0
	}
	return value, nil
}

// Stale compara o valor aceito com a recomputação fresca.
func Stale(acceptedCents, freshCents int64) bool {
	diff := acceptedCents - freshCents
	if diff < 0 {
		diff = -diff
	}
	return diff > EpsilonCents
}
