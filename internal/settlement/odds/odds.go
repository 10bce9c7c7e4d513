package odds

import (
	"errors"
	"math"
)

// ErrInvalidOdds indica odd americana zerada ou decimal fora da faixa válida.
var ErrInvalidOdds = errors.New("invalid odds")

// Decimal converte odd americana para decimal.
// +150 → 2.50, -150 → 1.6667. Zero não é uma odd válida.
func Decimal(american int) (float64, error) {
	if american == 0 {
		return 0, ErrInvalidOdds
	}
	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// ToAmerican converte odd decimal para americana, arredondando para o inteiro
// mais próximo (math.Round). Decimais ≤ 1 não têm representação.
func ToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, ErrInvalidOdds
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// PayoutCents calcula só o lucro de uma aposta vencedora, em centavos.
// Retorno total em caso de vitória = stake + payout.
func PayoutCents(stakeCents int64, american int) (int64, error) {
	if american == 0 {
		return 0, ErrInvalidOdds
	}
	if american > 0 {
		return int64(math.Round(float64(stakeCents) * float64(american) / 100.0)), nil
	}
	return int64(math.Round(float64(stakeCents) * 100.0 / float64(-american))), nil
}
